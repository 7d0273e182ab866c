// File: core/concurrency/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error definitions for concurrency module.

package concurrency

import (
	"errors"
	"fmt"
)

var (
	// ErrExecutorClosed indicates the executor has been shut down
	ErrExecutorClosed = errors.New("executor is closed")

	// ErrNilTask indicates a nil task was submitted
	ErrNilTask = errors.New("task is nil")
)

// RejectedTaskError is returned by Submit once the executor has left the
// Running state. The task is handed back untouched so no work is silently
// lost; the caller decides whether to retry elsewhere or drop it.
type RejectedTaskError struct {
	Task  Task
	State State
}

func (e *RejectedTaskError) Error() string {
	return fmt.Sprintf("task rejected: executor is %s", e.State)
}

func (e *RejectedTaskError) Unwrap() error {
	return ErrExecutorClosed
}

// TaskPanicError records a panic recovered at the task execution boundary.
type TaskPanicError struct {
	Worker int
	Value  any
	Stack  []byte
}

func (e *TaskPanicError) Error() string {
	return fmt.Sprintf("task panicked on worker %d: %v", e.Worker, e.Value)
}
