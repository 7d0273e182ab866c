// File: facade/engine.go
// Unified facade layer for hioload-exec.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Engine aggregates the executor, block pool, rule result cache, metrics,
// debug probes and the maintenance schedule behind a single value built from
// control.Settings. It implements api.GracefulShutdown.

package facade

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/momentics/hioload-exec/adapters"
	"github.com/momentics/hioload-exec/api"
	"github.com/momentics/hioload-exec/cache"
	"github.com/momentics/hioload-exec/control"
	"github.com/momentics/hioload-exec/core/concurrency"
	"github.com/momentics/hioload-exec/internal/logx"
	"github.com/momentics/hioload-exec/pool"
	"github.com/momentics/hioload-exec/rule"
	"github.com/momentics/hioload-exec/simd"
)

const (
	tracerName          = "github.com/momentics/hioload-exec/facade"
	cronShutdownTimeout = 5 * time.Second
)

// Engine is the main facade type.
type Engine struct {
	executor *adapters.ExecutorAdapter
	pool     *pool.BlockPool
	cache    *cache.Cache[string, bool]
	metrics  *control.MetricsCollector
	debug    *control.DebugProbes
	control  *adapters.ControlAdapter
	settings *control.SettingsStore
	cron     *cron.Cron
	tracer   trace.Tracer
	log      logx.Logger

	shutdownOnce sync.Once
}

// Ensure compliance with api.GracefulShutdown.
var _ api.GracefulShutdown = (*Engine)(nil)

// New validates s (nil means defaults) and starts every component.
func New(s *control.Settings, log logx.Logger) (*Engine, error) {
	if s == nil {
		s = control.DefaultSettings()
	}
	if err := s.Validate(); err != nil {
		return nil, api.Wrap(api.ErrCodeInvalidArgument, "engine settings", err)
	}

	e := &Engine{
		pool:     pool.NewBlockPool(s.Memory.Blocks, s.Memory.BlockSize),
		cache:    cache.New[string, bool](s.CacheTTL(), s.Cache.MaxEntries),
		metrics:  control.NewMetricsCollector(),
		debug:    control.NewDebugProbes(),
		settings: control.NewSettingsStore(s),
		tracer:   otel.Tracer(tracerName),
		log:      log.With(logx.String("component", "engine")),
	}

	cfg := s.ExecutorConfig(log)
	cfg.PanicHandler = func(int, any) { e.metrics.IncrementCounter("executor.task_panics", 1) }
	e.executor = adapters.NewExecutorAdapter(cfg)

	control.RegisterPlatformProbes(e.debug)
	e.debug.RegisterProbe("executor.stats", func() any { return e.executor.Stats() })
	e.debug.RegisterProbe("pool.allocated_blocks", func() any { return e.pool.AllocatedBlocks() })
	e.debug.RegisterProbe("cache.entries", func() any { return e.cache.Len() })
	e.control = adapters.NewControlAdapter(e.settings, e.metrics, e.debug)
	e.settings.OnReload(e.apply)

	if s.Maintenance.Enabled {
		c := cron.New(cron.WithParser(cron.NewParser(
			cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
		)))
		if _, err := c.AddFunc(s.MaintenanceSchedule(), e.maintain); err != nil {
			e.executor.Shutdown()
			return nil, api.Wrap(api.ErrCodeInvalidArgument, "maintenance schedule", err)
		}
		c.Start()
		e.cron = c
	}

	e.log.Info("engine started",
		logx.Int("workers", e.executor.NumWorkers()),
		logx.Int("blocks", e.pool.Capacity()),
		logx.Int("block_size", e.pool.BlockSize()),
		logx.Duration("cache_ttl", s.CacheTTL()))
	return e, nil
}

// Executor returns the task executor.
func (e *Engine) Executor() *adapters.ExecutorAdapter { return e.executor }

// Pool returns the scratch block pool.
func (e *Engine) Pool() *pool.BlockPool { return e.pool }

// Cache returns the rule result cache, keyed by rule ID.
func (e *Engine) Cache() *cache.Cache[string, bool] { return e.cache }

// Metrics returns the engine metrics collector.
func (e *Engine) Metrics() *control.MetricsCollector { return e.metrics }

// Control returns metrics, probes and reload hooks as api.Control.
func (e *Engine) Control() api.Control { return e.control }

// Settings returns the store the engine reads hot-reloadable values from.
func (e *Engine) Settings() *control.SettingsStore { return e.settings }

// MemoryBlock returns the next scratch block from the pool.
func (e *Engine) MemoryBlock() []byte {
	e.metrics.IncrementCounter("pool.blocks_handed", 1)
	return e.pool.GetBlock()
}

// ProcessData computes out[i] = in[i]*in[i] + 1.
func (e *Engine) ProcessData(in, out []float32) error {
	defer e.metrics.StartTimer("engine.process_data")()
	if err := simd.FMAPlusOne(in, in, out); err != nil {
		return api.Wrap(api.ErrCodeInvalidArgument, "process data", err).
			WithContext("in", len(in)).
			WithContext("out", len(out))
	}
	return nil
}

// ProcessParallel runs every task on the executor and waits for all of
// them or ctx.
func (e *Engine) ProcessParallel(ctx context.Context, tasks []func()) error {
	ctx, span := e.tracer.Start(ctx, "engine.ProcessParallel",
		trace.WithAttributes(attribute.Int("tasks", len(tasks))))
	defer span.End()
	defer e.metrics.StartTimer("engine.process_parallel")()

	err := concurrency.ForEach(ctx, e.executor, tasks, func(t func()) {
		if t != nil {
			t()
		}
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	e.metrics.IncrementCounter("engine.tasks", uint64(len(tasks)))
	return nil
}

// Evaluator decides a single rule.
type Evaluator func(r rule.Rule) bool

// EvaluateRules evaluates the active rules in parallel and returns results by
// rule ID. Results are cached by ID for the cache TTL, so eval is not called
// again for a rule evaluated recently. Inactive rules are absent from the
// result. An invalid active rule fails the whole call before any evaluation.
func (e *Engine) EvaluateRules(ctx context.Context, rules []rule.Rule, eval Evaluator) (map[string]bool, error) {
	ctx, span := e.tracer.Start(ctx, "engine.EvaluateRules",
		trace.WithAttributes(attribute.Int("rules", len(rules))))
	defer span.End()
	defer e.metrics.StartTimer("engine.evaluate_rules")()

	if eval == nil {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "nil evaluator")
	}
	active := rule.Active(rules)
	seen := make(map[string]struct{}, len(active))
	for _, r := range active {
		err := r.Validate()
		if _, dup := seen[r.ID]; err == nil && dup {
			err = fmt.Errorf("%w: %s", rule.ErrDuplicateID, r.ID)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid rule")
			return nil, api.Wrap(api.ErrCodeInvalidArgument, "evaluate rules", err)
		}
		seen[r.ID] = struct{}{}
	}
	span.SetAttributes(attribute.Int("rules.active", len(active)))

	var mu sync.Mutex
	var completed atomic.Int64
	results := make(map[string]bool, len(active))
	err := concurrency.ForEach(ctx, e.executor, active, func(r rule.Rule) {
		v, hit := e.cache.Get(r.ID)
		if hit {
			e.metrics.IncrementCounter("cache.hits", 1)
		} else {
			e.metrics.IncrementCounter("cache.misses", 1)
			v = eval(r)
			e.cache.Insert(r.ID, v)
		}
		mu.Lock()
		results[r.ID] = v
		mu.Unlock()
		completed.Add(1)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	mu.Lock()
	defer mu.Unlock()
	if completed.Load() != int64(len(active)) {
		// An evaluator panicked; the executor contained it.
		err := api.NewError(api.ErrCodeInternal, "rule evaluation failed").
			WithContext("evaluated", completed.Load()).
			WithContext("active", len(active))
		span.SetStatus(codes.Error, err.Message)
		return results, err
	}
	return results, nil
}

// ApplySettings publishes s; hot-reloadable values (log level, cache TTL)
// take effect immediately. Executor, pool and schedule settings apply on the
// next New.
func (e *Engine) ApplySettings(s *control.Settings) error {
	if s == nil {
		return api.NewError(api.ErrCodeInvalidArgument, "nil settings")
	}
	if err := s.Validate(); err != nil {
		return api.Wrap(api.ErrCodeInvalidArgument, "apply settings", err)
	}
	e.settings.Store(s)
	return nil
}

func (e *Engine) apply(s *control.Settings) {
	if s.Log.Level != "" {
		e.log.SetLevel(s.Log.Level)
	}
	e.cache.SetTTL(s.CacheTTL())
	e.log.Info("settings applied", logx.String("log_level", s.Log.Level), logx.Duration("cache_ttl", s.CacheTTL()))
}

// maintain runs on the cron schedule.
func (e *Engine) maintain() {
	purged := e.cache.PurgeExpired()
	st := e.executor.Stats()
	e.metrics.IncrementCounter("cache.purged", uint64(purged))
	e.metrics.SetGauge("cache.entries", int64(e.cache.Len()))
	e.metrics.SetGauge("executor.pending", int64(st.Pending))
	e.metrics.SetGauge("executor.failed", int64(st.Failed))
	e.metrics.SetGauge("pool.allocated_blocks", int64(e.pool.AllocatedBlocks()))
	e.log.Debug("maintenance done", logx.Int("purged", purged), logx.Int("pending", st.Pending))
}

// Shutdown stops the maintenance schedule and the executor. Queued tasks are
// discarded. Later calls are no-ops. It joins the workers, so it must not be
// called from a task, a rule evaluator or a ProcessParallel function.
func (e *Engine) Shutdown() error {
	var err error
	e.shutdownOnce.Do(func() {
		if e.cron != nil {
			ctx := e.cron.Stop()
			select {
			case <-ctx.Done():
			case <-time.After(cronShutdownTimeout):
				err = errors.New("engine: maintenance job did not finish")
			}
		}
		e.executor.Shutdown()
		st := e.executor.Stats()
		e.log.Info("engine stopped",
			logx.Uint64("executed", st.Executed),
			logx.Uint64("failed", st.Failed),
			logx.Uint64("dropped", st.Dropped))
	})
	return err
}
