// File: core/concurrency/parallel.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"context"
	"sync/atomic"
)

// Submitter is anything tasks can be handed to.
type Submitter interface {
	Submit(t Task) error
}

// ForEach submits fn(item) for every item and waits until all of them have
// run or ctx is done. Submission stops at the first rejection, whose error is
// returned; tasks already accepted keep running.
//
// Tasks dropped by a concurrent shutdown never complete, so callers that may
// race a shutdown should pass a ctx with a deadline. Nothing is left waiting
// on them after ForEach returns.
func ForEach[T any](ctx context.Context, s Submitter, items []T, fn func(T)) error {
	if len(items) == 0 {
		return nil
	}
	// remaining starts one above the item count; the extra unit is released
	// once submission ends, so done fires only after every accepted task ran.
	var remaining atomic.Int64
	remaining.Store(int64(len(items)) + 1)
	done := make(chan struct{}, 1)
	finish := func() {
		if remaining.Add(-1) == 0 {
			done <- struct{}{}
		}
	}

	for i, it := range items {
		if err := s.Submit(func() {
			defer finish()
			fn(it)
		}); err != nil {
			// Items never submitted will not call finish.
			remaining.Add(-int64(len(items) - i))
			return err
		}
	}
	finish()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
