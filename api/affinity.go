// Package api
// Author: momentics@gmail.com
//
// CPU affinity and thread pinning contract.

package api

// Affinity pins the calling goroutine's OS thread to a CPU.
type Affinity interface {
	// Pin locks the current goroutine to its thread and binds the thread to
	// the slot-th CPU the process is allowed to run on.
	Pin(slot int) error
	// Unpin restores the previous mask and unlocks the thread.
	Unpin() error
	// Pinned reports whether a Pin is in effect.
	Pinned() bool
}
