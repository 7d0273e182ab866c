// File: core/concurrency/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Executor configuration and its normalization rules.

package concurrency

import (
	"runtime"
	"time"

	"golang.org/x/time/rate"

	"github.com/momentics/hioload-exec/internal/logx"
)

const (
	// DefaultQueueCapacity is the per-worker queue size used when none is set.
	DefaultQueueCapacity = 1024

	defaultPanicLogRate = rate.Limit(10)
)

// Config holds executor parameters. They are fixed for the executor's
// lifetime.
type Config struct {
	NumWorkers         int  // worker goroutines; <= 0 is raised to 1
	QueueCapacity      int  // per-worker queue size, rounded up to a power of two
	EnableWorkStealing bool // idle workers take tasks from siblings
	PinWorkers         bool // pin worker i to the i-th allowed CPU

	SpinLimit    int           // idle spin rounds before yielding
	YieldLimit   int           // idle yield rounds before sleeping
	MaxIdleSleep time.Duration // cap of the idle sleep; < 0 disables sleeping

	Logger       logx.Logger
	PanicHandler func(workerID int, recovered any)
	PanicLogRate rate.Limit // panic log lines per second; 0 means default
}

// DefaultConfig returns one worker per logical CPU, 1024-slot queues and
// work stealing enabled.
func DefaultConfig() Config {
	return Config{
		NumWorkers:         runtime.NumCPU(),
		QueueCapacity:      DefaultQueueCapacity,
		EnableWorkStealing: true,
		SpinLimit:          defaultSpinLimit,
		YieldLimit:         defaultYieldLimit,
		MaxIdleSleep:       defaultMaxIdleSleep,
	}
}

// normalize coerces out-of-range values instead of rejecting them: a pool
// with zero workers could never make progress.
func (c Config) normalize() Config {
	if c.NumWorkers <= 0 {
		c.NumWorkers = 1
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = DefaultQueueCapacity
	}
	c.QueueCapacity = int(nextPowerOfTwo(uint64(max(c.QueueCapacity, 2))))
	if c.SpinLimit <= 0 {
		c.SpinLimit = defaultSpinLimit
	}
	if c.YieldLimit <= 0 {
		c.YieldLimit = defaultYieldLimit
	}
	if c.MaxIdleSleep == 0 {
		c.MaxIdleSleep = defaultMaxIdleSleep
	}
	if c.PanicLogRate <= 0 {
		c.PanicLogRate = defaultPanicLogRate
	}
	return c
}
