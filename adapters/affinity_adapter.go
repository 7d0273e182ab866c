// File: adapters/affinity_adapter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
// Description:
//   Adapter implementing the api.Affinity interface on top of the affinity
//   package.
//
// Package adapters provides glue code between the core API contracts
// and the internal implementation.

package adapters

import (
	"errors"

	"github.com/momentics/hioload-exec/affinity"
	"github.com/momentics/hioload-exec/api"
)

// AffinityAdapter implements api.Affinity for a single goroutine. It is not
// safe for concurrent use; each pinned goroutine owns its own adapter.
type AffinityAdapter struct {
	release func()
	slot    int
}

// NewAffinityAdapter creates an unpinned adapter.
func NewAffinityAdapter() *AffinityAdapter {
	return &AffinityAdapter{slot: -1}
}

var _ api.Affinity = (*AffinityAdapter)(nil)

// Pin binds the calling thread to the slot-th allowed CPU. A previous pin is
// released first. On failure the thread is unlocked again.
func (a *AffinityAdapter) Pin(slot int) error {
	if slot < 0 {
		return api.NewError(api.ErrCodeInvalidArgument, "negative cpu slot").WithContext("slot", slot)
	}
	if err := a.Unpin(); err != nil {
		return err
	}
	release, err := affinity.PinWorker(slot)
	if err != nil {
		release()
		code := api.ErrCodeInternal
		if errors.Is(err, affinity.ErrNotSupported) {
			code = api.ErrCodeNotSupported
		}
		return api.Wrap(code, "pin failed", err)
	}
	a.release = release
	a.slot = slot
	return nil
}

// Unpin is a no-op when nothing is pinned.
func (a *AffinityAdapter) Unpin() error {
	if a.release == nil {
		return nil
	}
	a.release()
	a.release = nil
	a.slot = -1
	return nil
}

func (a *AffinityAdapter) Pinned() bool { return a.release != nil }

// Slot returns the pinned slot, or -1.
func (a *AffinityAdapter) Slot() int { return a.slot }
