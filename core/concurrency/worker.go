// File: core/concurrency/worker.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Worker loop: own deque, own inbox, shared overflow, then siblings.

package concurrency

import (
	"runtime"
	"runtime/debug"

	"github.com/momentics/hioload-exec/affinity"
	"github.com/momentics/hioload-exec/internal/logx"
)

// worker owns one deque (push/pop) and one inbox (fed by Submit). Siblings
// only ever Steal from the deque or Dequeue from the inbox.
type worker struct {
	id    int
	core  *executorCore
	deque *Deque
	inbox *LockFreeQueue[Task]
	rng   uint64
}

func newWorker(id int, core *executorCore) *worker {
	return &worker{
		id:    id,
		core:  core,
		deque: NewDeque(core.cfg.QueueCapacity),
		inbox: NewLockFreeQueue[Task](core.cfg.QueueCapacity),
		rng:   uint64(id)*0x9E3779B97F4A7C15 + 1,
	}
}

func (w *worker) run() {
	defer w.core.wg.Done()

	if w.core.cfg.PinWorkers {
		release, err := affinity.PinWorker(w.id)
		defer release()
		if err != nil {
			w.core.log.Warn("worker pinning failed", logx.Int("worker", w.id), logx.Err(err))
		}
	} else {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	w.core.log.Debug("worker started", logx.Int("worker", w.id))
	defer w.core.log.Debug("worker stopped", logx.Int("worker", w.id))

	cfg := w.core.cfg
	b := NewBackoff(cfg.SpinLimit, cfg.YieldLimit, cfg.MaxIdleSleep)
	defer b.Stop()

	for w.core.running() {
		if t, ok := w.next(); ok {
			w.execute(t)
			b.Reset()
			continue
		}
		b.Wait(w.core.done)
	}
}

// next finds one task, cheapest source first.
func (w *worker) next() (Task, bool) {
	if t, ok := w.deque.Pop(); ok {
		return t, true
	}
	if t, ok := w.inbox.Dequeue(); ok {
		w.refill()
		return t, true
	}
	if t, ok := w.core.overflow.Pop(); ok {
		return t, true
	}
	if w.core.cfg.EnableWorkStealing {
		return w.steal()
	}
	return nil, false
}

// refill moves a batch from the inbox into the deque so that siblings can
// steal it while this worker is busy.
func (w *worker) refill() {
	for n := w.deque.Cap() / 2; n > 0; n-- {
		t, ok := w.inbox.Dequeue()
		if !ok {
			return
		}
		if !w.deque.Push(t) {
			w.core.overflow.Push(t)
			return
		}
	}
}

// steal visits every sibling once, starting at a random one so idle workers
// do not convoy on the same victim.
func (w *worker) steal() (Task, bool) {
	peers := w.core.workers
	n := len(peers)
	if n < 2 {
		return nil, false
	}
	start := int(w.random() % uint64(n-1))
	for i := 0; i < n-1; i++ {
		v := peers[(w.id+1+(start+i)%(n-1))%n]
		if t, ok := v.deque.Steal(); ok {
			w.core.stats.stolen.Add(1)
			return t, true
		}
		if t, ok := v.inbox.Dequeue(); ok {
			w.core.stats.stolen.Add(1)
			return t, true
		}
	}
	return nil, false
}

// execute runs t on this goroutine. A panic is contained here and never
// reaches the worker loop.
func (w *worker) execute(t Task) {
	defer func() {
		w.core.stats.executed.Add(1)
		if r := recover(); r != nil {
			w.core.taskPanicked(w.id, r, debug.Stack())
		}
	}()
	t()
}

// random is a xorshift64 step; only the owning worker calls it.
func (w *worker) random() uint64 {
	x := w.rng
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	w.rng = x
	return x
}
