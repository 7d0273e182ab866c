//go:build !linux && !windows

// File: affinity/affinity_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package affinity

import "runtime"

func setAffinityPlatform(cpuID int) error {
	return ErrNotSupported
}

func pinPlatform(id int) (func() error, error) {
	return nil, ErrNotSupported
}

// Allowed returns how many CPUs the process may run on.
func Allowed() int {
	return runtime.NumCPU()
}
