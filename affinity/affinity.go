// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral API for CPU affinity. Platform-specific implementations are located
// in separate files (affinity_linux.go, affinity_windows.go, etc.) guarded by build tags.

package affinity

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrNotSupported is returned where thread pinning is unavailable.
var ErrNotSupported = errors.New("affinity: not supported on this platform")

// SetAffinity pins the calling OS thread to the given logical CPU. The caller
// must already hold the thread via runtime.LockOSThread, otherwise the Go
// scheduler may move the goroutine elsewhere and the pin is meaningless.
func SetAffinity(cpuID int) error {
	if cpuID < 0 {
		return fmt.Errorf("affinity: invalid cpu %d", cpuID)
	}
	return setAffinityPlatform(cpuID)
}

// PinWorker locks the calling goroutine to its OS thread and pins that thread
// to the id-th CPU (modulo) of the CPUs it is currently allowed to use. The
// returned function restores the previous mask and unlocks the thread. When
// pinning fails the goroutine stays locked, release only unlocks it, and the
// error is returned so the caller can log it.
func PinWorker(id int) (release func(), err error) {
	runtime.LockOSThread()
	restore, err := pinPlatform(id)
	if err != nil {
		return runtime.UnlockOSThread, err
	}
	return func() {
		_ = restore()
		runtime.UnlockOSThread()
	}, nil
}
