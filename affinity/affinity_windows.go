//go:build windows

// File: affinity/affinity_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows-specific implementation for setting thread CPU affinity.

package affinity

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/windows"
)

var procSetThreadAffinityMask = windows.NewLazySystemDLL("kernel32.dll").NewProc("SetThreadAffinityMask")

// setThreadMask applies mask to the calling thread and returns the previous one.
func setThreadMask(mask uintptr) (uintptr, error) {
	prev, _, err := procSetThreadAffinityMask.Call(uintptr(windows.CurrentThread()), mask)
	if prev == 0 {
		return 0, fmt.Errorf("affinity: SetThreadAffinityMask: %w", err)
	}
	return prev, nil
}

func setAffinityPlatform(cpuID int) error {
	if cpuID >= 64 {
		return fmt.Errorf("affinity: cpu %d outside the first processor group", cpuID)
	}
	_, err := setThreadMask(uintptr(1) << cpuID)
	return err
}

func pinPlatform(id int) (func() error, error) {
	n := min(runtime.NumCPU(), 64)
	prev, err := setThreadMask(uintptr(1) << (id % n))
	if err != nil {
		return nil, err
	}
	return func() error {
		_, err := setThreadMask(prev)
		return err
	}, nil
}

// Allowed returns how many CPUs the process may run on.
func Allowed() int {
	return runtime.NumCPU()
}
