// Package api
// Author: momentics
//
// Executor contract for parallel task dispatch.

package api

// Executor abstracts parallel task execution.
type Executor interface {
	// Submit schedules task for execution. It never blocks.
	Submit(task func()) error

	// PendingTasks returns an approximate number of queued tasks.
	PendingTasks() int

	// NumWorkers returns the number of worker routines.
	NumWorkers() int

	// Shutdown stops the workers; queued tasks are discarded.
	Shutdown()
}
