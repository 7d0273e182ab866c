// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Thread-safe settings store with atomic snapshots and reload propagation.

package control

import (
	"slices"
	"sync"
	"sync/atomic"
)

// SettingsStore holds the current Settings. Readers get an immutable
// snapshot without locking; Store publishes a new one and notifies
// listeners in registration order.
type SettingsStore struct {
	current atomic.Pointer[Settings]

	mu        sync.Mutex
	listeners []func(*Settings)
}

// NewSettingsStore initializes a store with s, or the defaults when s is nil.
func NewSettingsStore(s *Settings) *SettingsStore {
	if s == nil {
		s = DefaultSettings()
	}
	st := &SettingsStore{}
	st.current.Store(s.Clone())
	return st
}

// Snapshot returns the current settings. Callers must not modify it.
func (cs *SettingsStore) Snapshot() *Settings {
	return cs.current.Load()
}

// Store replaces the settings and runs every listener on the calling
// goroutine with the new snapshot.
func (cs *SettingsStore) Store(s *Settings) {
	snap := s.Clone()
	cs.current.Store(snap)

	cs.mu.Lock()
	listeners := slices.Clone(cs.listeners)
	cs.mu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}

// OnReload registers a listener hook called on settings changes.
func (cs *SettingsStore) OnReload(fn func(*Settings)) {
	if fn == nil {
		return
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}
