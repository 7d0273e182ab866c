// File: core/concurrency/stats.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"fmt"
	"sync/atomic"
)

// State is the executor run state shared by all of its workers.
type State int32

const (
	StateRunning State = iota
	StateShuttingDown
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting down"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Stats is a point-in-time view of executor counters. Counters are read
// independently, so the snapshot is not globally consistent.
type Stats struct {
	NumWorkers int
	Submitted  uint64 // accepted by Submit
	Executed   uint64 // ran to completion or panicked
	Failed     uint64 // panicked
	Stolen     uint64 // taken from a sibling worker
	Overflowed uint64 // routed to the overflow queue
	Dropped    uint64 // discarded unexecuted at shutdown
	Pending    int
	State      State
}

type counters struct {
	submitted  atomic.Uint64
	executed   atomic.Uint64
	failed     atomic.Uint64
	stolen     atomic.Uint64
	overflowed atomic.Uint64
	dropped    atomic.Uint64
}
