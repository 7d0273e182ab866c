// File: core/concurrency/deque.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bounded single-owner / multi-thief work-stealing deque.
//
// The owner pushes and pops at head (LIFO), thieves take from tail (FIFO).
// Slots are atomic pointer cells: a slot changes hands only through the
// cursor protocol, and the consumer clears it with compare-and-swap so a
// slot re-filled after wrap-around is never clobbered.

package concurrency

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// Task is a unit of work: no arguments, no result, run at most once.
type Task = func()

const (
	stealSpinLimit  = 4
	stealYieldLimit = 8
)

// Deque is a fixed-capacity work-stealing deque.
//
// Push, Pop and Clear may only be called by the owning goroutine. Steal, Len
// and Cap are safe from any goroutine. Invariant: 0 <= head-tail <= capacity.
type Deque struct {
	_    cpu.CacheLinePad
	head atomic.Uint64 // owner end
	_    cpu.CacheLinePad
	tail atomic.Uint64 // thief end, advanced by CAS
	_    cpu.CacheLinePad

	mask  uint64
	slots []atomic.Pointer[Task]
}

// NewDeque creates a deque whose capacity is capacity rounded up to the next
// power of two (minimum 2).
func NewDeque(capacity int) *Deque {
	size := nextPowerOfTwo(uint64(max(capacity, 2)))
	return &Deque{
		mask:  size - 1,
		slots: make([]atomic.Pointer[Task], size),
	}
}

// Push stores t at the owner end. It returns false, leaving t with the
// caller, when the deque is full or t is nil.
func (d *Deque) Push(t Task) bool {
	if t == nil {
		return false
	}
	h := d.head.Load()
	tl := d.tail.Load()
	if h-tl >= uint64(len(d.slots)) {
		return false
	}
	d.slots[h&d.mask].Store(&t)
	d.head.Store(h + 1) // publish
	return true
}

// Pop removes the most recently pushed task.
func (d *Deque) Pop() (Task, bool) {
	h := d.head.Load()
	if h == d.tail.Load() {
		return nil, false
	}

	h--
	d.head.Store(h)
	t := d.tail.Load()

	if t > h {
		// A thief took the last task between the emptiness check and the
		// decrement.
		d.head.Store(h + 1)
		return nil, false
	}

	slot := &d.slots[h&d.mask]
	p := slot.Load()

	if t < h {
		// More than one task left: thieves cannot reach index h.
		slot.CompareAndSwap(p, nil)
		return *p, true
	}

	// Last task: race the thieves for it.
	won := d.tail.CompareAndSwap(t, t+1)
	d.head.Store(h + 1)
	if !won || p == nil {
		return nil, false
	}
	slot.CompareAndSwap(p, nil)
	return *p, true
}

// Steal removes the oldest task. Lost CAS races are retried with bounded
// backoff; Steal returns false only when the deque is observed empty.
func (d *Deque) Steal() (Task, bool) {
	var b *Backoff
	for {
		t := d.tail.Load()
		h := d.head.Load()
		if t >= h {
			return nil, false
		}

		slot := &d.slots[t&d.mask]
		p := slot.Load()
		if p != nil && d.tail.CompareAndSwap(t, t+1) {
			slot.CompareAndSwap(p, nil)
			return *p, true
		}

		if b == nil {
			b = NewBackoff(stealSpinLimit, stealYieldLimit, 0)
		}
		b.Spin()
	}
}

// Len returns a best-effort count of resident tasks.
func (d *Deque) Len() int {
	t := d.tail.Load()
	h := d.head.Load()
	if h <= t {
		return 0
	}
	return int(h - t)
}

// Cap returns the fixed capacity.
func (d *Deque) Cap() int {
	return len(d.slots)
}

// Clear drops every resident task without running it and returns how many
// were dropped. Owner only; thieves may still race it, and whatever they win
// is not counted.
func (d *Deque) Clear() int {
	n := 0
	for {
		if _, ok := d.Pop(); !ok {
			return n
		}
		n++
	}
}

// nextPowerOfTwo rounds v up to a power of two (v >= 1).
func nextPowerOfTwo(v uint64) uint64 {
	if v <= 1 {
		return 1
	}
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v |= v >> 32
	return v + 1
}
