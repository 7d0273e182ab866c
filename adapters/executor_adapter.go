// File: adapters/executor_adapter.go
// Package adapters provides glue between the concurrency core and api contracts.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ExecutorAdapter implements api.Executor on top of concurrency.Executor and
// maps its rejection errors onto api.Error.

package adapters

import (
	"errors"

	"github.com/momentics/hioload-exec/api"
	"github.com/momentics/hioload-exec/core/concurrency"
)

// ExecutorAdapter wraps a concurrency.Executor to satisfy the api.Executor contract.
type ExecutorAdapter struct {
	exec *concurrency.Executor
}

// NewExecutorAdapter starts an executor with cfg.
func NewExecutorAdapter(cfg concurrency.Config) *ExecutorAdapter {
	return &ExecutorAdapter{exec: concurrency.NewExecutor(cfg)}
}

// WrapExecutor adapts an executor that is already running.
func WrapExecutor(e *concurrency.Executor) *ExecutorAdapter {
	return &ExecutorAdapter{exec: e}
}

// Submit dispatches a task. A rejection after shutdown is reported as an
// api.Error with ErrCodeShutdown that still unwraps to the concurrency error.
func (ea *ExecutorAdapter) Submit(task func()) error {
	err := ea.exec.Submit(task)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, concurrency.ErrNilTask):
		return api.Wrap(api.ErrCodeInvalidArgument, "submit", err)
	case errors.Is(err, concurrency.ErrExecutorClosed):
		return api.Wrap(api.ErrCodeShutdown, "submit", err).
			WithContext("state", ea.exec.State().String())
	default:
		return api.Wrap(api.ErrCodeInternal, "submit", err)
	}
}

func (ea *ExecutorAdapter) PendingTasks() int { return ea.exec.PendingTasks() }

func (ea *ExecutorAdapter) NumWorkers() int { return ea.exec.NumWorkers() }

// Shutdown stops the executor. Queued tasks are discarded. It waits for
// every worker, so calling it from inside a submitted task deadlocks.
func (ea *ExecutorAdapter) Shutdown() { ea.exec.Shutdown() }

// Stats exposes the executor counters.
func (ea *ExecutorAdapter) Stats() concurrency.Stats { return ea.exec.Stats() }

// Unwrap returns the underlying executor.
func (ea *ExecutorAdapter) Unwrap() *concurrency.Executor { return ea.exec }

var _ api.Executor = (*ExecutorAdapter)(nil)
