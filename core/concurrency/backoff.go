// File: core/concurrency/backoff.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bounded exponential backoff used by contended CAS loops and idle workers.

package concurrency

import (
	"runtime"
	"time"
)

const (
	defaultSpinLimit    = 6
	defaultYieldLimit   = 10
	defaultMaxIdleSleep = time.Millisecond
)

// Backoff escalates from busy spinning (2^step iterations) to
// runtime.Gosched and, when a sleep cap is configured, to short sleeps that
// double up to that cap. It is not safe for concurrent use; each goroutine
// owns its own Backoff.
type Backoff struct {
	spinLimit  int
	yieldLimit int
	maxSleep   time.Duration

	step  int
	sleep time.Duration
	timer *time.Timer
}

// NewBackoff creates a Backoff. maxSleep <= 0 disables the sleep stage, so
// Wait never leaves the spin/yield phases.
func NewBackoff(spinLimit, yieldLimit int, maxSleep time.Duration) *Backoff {
	if spinLimit < 0 {
		spinLimit = 0
	}
	if yieldLimit < 0 {
		yieldLimit = 0
	}
	return &Backoff{spinLimit: spinLimit, yieldLimit: yieldLimit, maxSleep: maxSleep}
}

// Reset returns the backoff to its cheapest stage.
func (b *Backoff) Reset() {
	b.step = 0
	b.sleep = 0
}

// Spin performs one spin-or-yield round without ever sleeping.
func (b *Backoff) Spin() {
	if b.step < b.spinLimit {
		_ = spin(1 << b.step)
		b.step++
		return
	}
	runtime.Gosched()
}

// Completed reports whether spinning and yielding are exhausted.
func (b *Backoff) Completed() bool {
	return b.step >= b.spinLimit+b.yieldLimit
}

// Wait performs one idle round: spin, yield, then sleep. The sleep is cut
// short when wake is closed. It returns false if wake was closed.
func (b *Backoff) Wait(wake <-chan struct{}) bool {
	switch {
	case b.step < b.spinLimit:
		_ = spin(1 << b.step)
		b.step++
		return true
	case b.step < b.spinLimit+b.yieldLimit || b.maxSleep <= 0:
		if b.step < b.spinLimit+b.yieldLimit {
			b.step++
		}
		runtime.Gosched()
		return true
	}

	if b.sleep == 0 {
		b.sleep = time.Microsecond
	} else if b.sleep < b.maxSleep {
		b.sleep *= 2
	}
	if b.sleep > b.maxSleep {
		b.sleep = b.maxSleep
	}

	if b.timer == nil {
		b.timer = time.NewTimer(b.sleep)
	} else {
		b.timer.Reset(b.sleep)
	}
	select {
	case <-wake:
		if !b.timer.Stop() {
			select {
			case <-b.timer.C:
			default:
			}
		}
		return false
	case <-b.timer.C:
		return true
	}
}

// Stop releases the sleep timer.
func (b *Backoff) Stop() {
	if b.timer != nil {
		b.timer.Stop()
	}
}

// spin busy-waits for roughly n loop iterations. The result only exists to
// keep the loop from being eliminated.
//
//go:noinline
func spin(n int) int {
	x := 0
	for i := 0; i < n; i++ {
		x += i
	}
	return x
}
