// File: core/concurrency/lock_free_queue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bounded MPMC ring with per-cell sequence numbers (Dmitry Vyukov's scheme).
// Executors use one per worker as the cross-goroutine inbox: any submitter
// may enqueue, the owning worker and idle thieves dequeue.

package concurrency

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// LockFreeQueue is a bounded multi-producer/multi-consumer queue.
type LockFreeQueue[T any] struct {
	_     cpu.CacheLinePad
	head  atomic.Uint64 // next dequeue position
	_     cpu.CacheLinePad
	tail  atomic.Uint64 // next enqueue position
	_     cpu.CacheLinePad
	mask  uint64
	cells []cell[T]
}

type cell[T any] struct {
	sequence atomic.Uint64
	data     T
}

// NewLockFreeQueue creates a queue with capacity rounded up to a power of two.
func NewLockFreeQueue[T any](capacity int) *LockFreeQueue[T] {
	size := nextPowerOfTwo(uint64(max(capacity, 2)))
	q := &LockFreeQueue[T]{
		mask:  size - 1,
		cells: make([]cell[T], size),
	}
	for i := range q.cells {
		q.cells[i].sequence.Store(uint64(i))
	}
	return q
}

// Enqueue adds val; returns false if full.
func (q *LockFreeQueue[T]) Enqueue(val T) bool {
	for {
		tail := q.tail.Load()
		c := &q.cells[tail&q.mask]
		dif := int64(c.sequence.Load()) - int64(tail)

		switch {
		case dif == 0:
			if q.tail.CompareAndSwap(tail, tail+1) {
				c.data = val
				c.sequence.Store(tail + 1)
				return true
			}
		case dif < 0:
			return false // full
		}
		// tail moved, retry
	}
}

// Dequeue removes and returns an item; ok is false if empty.
func (q *LockFreeQueue[T]) Dequeue() (item T, ok bool) {
	for {
		head := q.head.Load()
		c := &q.cells[head&q.mask]
		dif := int64(c.sequence.Load()) - int64(head+1)

		switch {
		case dif == 0:
			if q.head.CompareAndSwap(head, head+1) {
				item = c.data
				var zero T
				c.data = zero // drop the reference for the GC
				c.sequence.Store(head + q.mask + 1)
				return item, true
			}
		case dif < 0:
			return item, false // empty
		}
		// head moved, retry
	}
}

// Len returns a best-effort number of queued items.
func (q *LockFreeQueue[T]) Len() int {
	head := q.head.Load()
	tail := q.tail.Load()
	if tail <= head {
		return 0
	}
	return int(tail - head)
}

// Cap returns the fixed capacity.
func (q *LockFreeQueue[T]) Cap() int {
	return len(q.cells)
}
