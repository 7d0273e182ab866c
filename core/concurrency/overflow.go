// File: core/concurrency/overflow.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Unbounded lock-free MPMC linked queue (Michael & Scott) used as the shared
// overflow path when a worker inbox is full. Garbage collection rules out
// ABA on node pointers, so no tagging is needed.

package concurrency

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

type overflowNode struct {
	task atomic.Pointer[Task]
	next atomic.Pointer[overflowNode]
}

type overflowQueue struct {
	_    cpu.CacheLinePad
	head atomic.Pointer[overflowNode] // sentinel; head.next is the first task
	_    cpu.CacheLinePad
	tail atomic.Pointer[overflowNode]
	_    cpu.CacheLinePad
	size atomic.Int64
}

func newOverflowQueue() *overflowQueue {
	q := &overflowQueue{}
	sentinel := &overflowNode{}
	q.head.Store(sentinel)
	q.tail.Store(sentinel)
	return q
}

// Push appends t. It never blocks and never fails.
func (q *overflowQueue) Push(t Task) {
	n := &overflowNode{}
	n.task.Store(&t)
	q.size.Add(1)
	for {
		tail := q.tail.Load()
		next := tail.next.Load()
		if tail != q.tail.Load() {
			continue
		}
		if next != nil {
			// Tail is lagging; help it along.
			q.tail.CompareAndSwap(tail, next)
			continue
		}
		if tail.next.CompareAndSwap(nil, n) {
			q.tail.CompareAndSwap(tail, n)
			return
		}
	}
}

// Pop removes the oldest task, if any.
func (q *overflowQueue) Pop() (Task, bool) {
	for {
		head := q.head.Load()
		tail := q.tail.Load()
		next := head.next.Load()
		if head != q.head.Load() {
			continue
		}
		if next == nil {
			return nil, false
		}
		if head == tail {
			q.tail.CompareAndSwap(tail, next)
			continue
		}
		if q.head.CompareAndSwap(head, next) {
			// next is the new sentinel; detach its task so it can be collected.
			p := next.task.Swap(nil)
			q.size.Add(-1)
			if p == nil {
				return nil, false
			}
			return *p, true
		}
	}
}

// Len returns a best-effort count of queued tasks.
func (q *overflowQueue) Len() int {
	if n := q.size.Load(); n > 0 {
		return int(n)
	}
	return 0
}

// Drain drops every queued task and returns how many were dropped.
func (q *overflowQueue) Drain() int {
	n := 0
	for {
		if _, ok := q.Pop(); !ok {
			return n
		}
		n++
	}
}
