// File: core/concurrency/executor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Executor dispatches tasks across worker goroutines: round-robin into
// per-worker lock-free inboxes, an unbounded lock-free overflow queue when an
// inbox is full, and work stealing between workers.

package concurrency

import (
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/momentics/hioload-exec/internal/logx"
)

// Executor is a fixed-size pool of workers. Submit never blocks.
//
// Shutdown must not be called from inside a task: it waits for every worker,
// including the one running the caller.
//
// An executor that is never shut down is stopped by a finalizer after its
// handle becomes unreachable and all accepted tasks have run. Callers that
// shut down explicitly should keep the handle alive until then, e.g. with
// runtime.KeepAlive or a deferred Shutdown.
type Executor struct {
	core *executorCore
}

// executorCore is everything the workers reference. Keeping it apart from
// the Executor handle lets the handle become unreachable, and its finalizer
// run Shutdown, while workers are still alive.
type executorCore struct {
	cfg      Config
	workers  []*worker
	overflow *overflowQueue

	state      atomic.Int32
	next       atomic.Uint64 // round-robin cursor
	submitting atomic.Int64  // Submit calls past the state check

	done chan struct{} // closed on shutdown, wakes sleeping workers
	wg   sync.WaitGroup
	once sync.Once

	stats        counters
	log          logx.Logger
	panicLimiter *rate.Limiter
}

// NewExecutor starts cfg.NumWorkers workers. Out-of-range settings are
// coerced, never rejected.
func NewExecutor(cfg Config) *Executor {
	cfg = cfg.normalize()
	c := &executorCore{
		cfg:          cfg,
		overflow:     newOverflowQueue(),
		done:         make(chan struct{}),
		log:          cfg.Logger.With(logx.String("component", "executor")),
		panicLimiter: rate.NewLimiter(cfg.PanicLogRate, max(1, int(cfg.PanicLogRate))),
	}
	c.workers = make([]*worker, cfg.NumWorkers)
	for i := range c.workers {
		c.workers[i] = newWorker(i, c)
	}
	c.wg.Add(len(c.workers))
	for _, w := range c.workers {
		go w.run()
	}
	c.log.Debug("executor started",
		logx.Int("workers", cfg.NumWorkers),
		logx.Int("queue_capacity", cfg.QueueCapacity),
		logx.Bool("work_stealing", cfg.EnableWorkStealing))

	e := &Executor{core: c}
	runtime.SetFinalizer(e, finalizeExecutor)
	return e
}

// finalizeExecutor reclaims an unreachable executor once it is idle. The
// handle can become unreachable while its tasks are still queued (the caller
// only waits on them), so a busy executor is re-armed for a later cycle.
func finalizeExecutor(e *Executor) {
	if e.core.busy() {
		runtime.SetFinalizer(e, finalizeExecutor)
		return
	}
	e.core.shutdown()
}

// Submit schedules t. It returns ErrNilTask for a nil task and a
// *RejectedTaskError, carrying t, once shutdown has begun.
func (e *Executor) Submit(t Task) error {
	return e.core.submit(t)
}

// PendingTasks sums the inbox, deque and overflow lengths. Each queue is
// read at a different instant; use it for monitoring only.
func (e *Executor) PendingTasks() int {
	return e.core.pending()
}

// NumWorkers returns the configured worker count.
func (e *Executor) NumWorkers() int {
	return len(e.core.workers)
}

// QueueCapacity returns the normalized per-worker queue capacity.
func (e *Executor) QueueCapacity() int {
	return e.core.cfg.QueueCapacity
}

// State returns the current run state.
func (e *Executor) State() State {
	return State(e.core.state.Load())
}

// Stats returns a snapshot of the executor counters.
func (e *Executor) Stats() Stats {
	c := e.core
	return Stats{
		NumWorkers: len(c.workers),
		Submitted:  c.stats.submitted.Load(),
		Executed:   c.stats.executed.Load(),
		Failed:     c.stats.failed.Load(),
		Stolen:     c.stats.stolen.Load(),
		Overflowed: c.stats.overflowed.Load(),
		Dropped:    c.stats.dropped.Load(),
		Pending:    c.pending(),
		State:      State(c.state.Load()),
	}
}

// Shutdown stops accepting tasks, lets in-flight tasks finish, joins all
// workers and drops whatever is still queued. It is idempotent; concurrent
// callers all return after the workers have exited.
func (e *Executor) Shutdown() {
	e.core.shutdown()
}

// busy reports whether accepted tasks have not yet run.
func (c *executorCore) busy() bool {
	executed := c.stats.executed.Load()
	return c.stats.submitted.Load() > executed || c.pending() > 0
}

func (c *executorCore) running() bool {
	return State(c.state.Load()) == StateRunning
}

func (c *executorCore) submit(t Task) error {
	if t == nil {
		return ErrNilTask
	}
	c.submitting.Add(1)
	defer c.submitting.Add(-1)

	if s := State(c.state.Load()); s != StateRunning {
		return &RejectedTaskError{Task: t, State: s}
	}

	idx := (c.next.Add(1) - 1) % uint64(len(c.workers))
	if !c.workers[idx].inbox.Enqueue(t) {
		c.overflow.Push(t)
		c.stats.overflowed.Add(1)
	}
	c.stats.submitted.Add(1)
	return nil
}

func (c *executorCore) pending() int {
	n := c.overflow.Len()
	for _, w := range c.workers {
		n += w.inbox.Len() + w.deque.Len()
	}
	return n
}

func (c *executorCore) shutdown() {
	c.once.Do(func() {
		c.state.Store(int32(StateShuttingDown))
		// A Submit that saw Running finishes its enqueue before the drain.
		for c.submitting.Load() > 0 {
			runtime.Gosched()
		}
		close(c.done)
		c.wg.Wait()

		// Workers are gone; this goroutine is now the only queue owner.
		dropped := c.overflow.Drain()
		for _, w := range c.workers {
			dropped += w.deque.Clear()
			for {
				if _, ok := w.inbox.Dequeue(); !ok {
					break
				}
				dropped++
			}
		}
		c.stats.dropped.Add(uint64(dropped))
		c.state.Store(int32(StateStopped))

		c.log.Debug("executor stopped",
			logx.Uint64("executed", c.stats.executed.Load()),
			logx.Uint64("failed", c.stats.failed.Load()),
			logx.Int("dropped", dropped))
	})
}

func (c *executorCore) taskPanicked(workerID int, r any, stack []byte) {
	c.stats.failed.Add(1)
	if c.panicLimiter.Allow() {
		err := &TaskPanicError{Worker: workerID, Value: r, Stack: stack}
		c.log.Error("task panicked", logx.Int("worker", workerID), logx.Err(err), logx.Stack(string(stack)))
	}
	if h := c.cfg.PanicHandler; h != nil {
		func() {
			defer func() {
				if r2 := recover(); r2 != nil {
					c.log.Error("panic handler panicked", logx.Any("panic", r2))
				}
			}()
			h(workerID, r)
		}()
	}
}
