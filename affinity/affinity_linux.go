//go:build linux

// File: affinity/affinity_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux implementation via sched_setaffinity on the calling thread.

package affinity

import (
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// cpuSetBits is the number of CPUs a unix.CPUSet can describe.
const cpuSetBits = int(unsafe.Sizeof(unix.CPUSet{})) * 8

func setAffinityPlatform(cpuID int) error {
	if cpuID >= cpuSetBits {
		return fmt.Errorf("affinity: cpu %d exceeds cpu set size %d", cpuID, cpuSetBits)
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	// pid 0 addresses the calling thread.
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: sched_setaffinity cpu %d: %w", cpuID, err)
	}
	return nil
}

func pinPlatform(id int) (func() error, error) {
	var orig unix.CPUSet
	if err := unix.SchedGetaffinity(0, &orig); err != nil {
		return nil, fmt.Errorf("affinity: sched_getaffinity: %w", err)
	}
	allowed := make([]int, 0, orig.Count())
	for i := 0; i < cpuSetBits; i++ {
		if orig.IsSet(i) {
			allowed = append(allowed, i)
		}
	}
	if len(allowed) == 0 {
		return nil, fmt.Errorf("affinity: empty cpu mask")
	}
	if err := setAffinityPlatform(allowed[id%len(allowed)]); err != nil {
		return nil, err
	}
	return func() error {
		return unix.SchedSetaffinity(0, &orig)
	}, nil
}

// Allowed returns how many CPUs the calling thread may run on.
func Allowed() int {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return runtime.NumCPU()
	}
	return set.Count()
}
