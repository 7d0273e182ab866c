package facade

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-exec/api"
	"github.com/momentics/hioload-exec/control"
	"github.com/momentics/hioload-exec/core/concurrency"
	"github.com/momentics/hioload-exec/internal/logx"
	"github.com/momentics/hioload-exec/rule"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	s := control.DefaultSettings()
	s.Executor.Workers = 4
	s.Memory.Blocks = 16
	e, err := New(s, logx.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Shutdown() })
	return e
}

func TestNew_Defaults(t *testing.T) {
	e, err := New(nil, logx.Nop())
	require.NoError(t, err)
	defer e.Shutdown()

	assert.Equal(t, 1024, e.Pool().Capacity())
	assert.Len(t, e.MemoryBlock(), 4096)
	assert.Equal(t, 5*time.Minute, e.Cache().TTL())
	assert.NotNil(t, e.cron)
}

func TestNew_InvalidSettings(t *testing.T) {
	s := control.DefaultSettings()
	s.Cache.TTL = "later"
	_, err := New(s, logx.Nop())
	require.Error(t, err)
	assert.Equal(t, api.ErrCodeInvalidArgument, api.CodeOf(err))
}

func TestEngine_ProcessData(t *testing.T) {
	e := newTestEngine(t)
	in := make([]float32, 16)
	for i := range in {
		in[i] = 1
	}
	out := make([]float32, 16)
	require.NoError(t, e.ProcessData(in, out))
	for _, v := range out {
		assert.Equal(t, float32(2), v)
	}

	err := e.ProcessData(in, out[:3])
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
}

func TestEngine_ProcessParallel(t *testing.T) {
	e := newTestEngine(t)
	var counter atomic.Int64
	tasks := make([]func(), 100)
	for i := range tasks {
		tasks[i] = func() { counter.Add(1) }
	}
	require.NoError(t, e.ProcessParallel(context.Background(), tasks))
	assert.Equal(t, int64(100), counter.Load())
	assert.Equal(t, uint64(100), e.Metrics().Counter("engine.tasks"))
}

func TestEngine_EvaluateRulesCachesByID(t *testing.T) {
	e := newTestEngine(t)
	rules := []rule.Rule{
		rule.New("even", "x % 2 == 0", 1),
		rule.New("big", "x > 10", 5),
		{ID: "off", Name: "disabled", Expression: "true", Active: false},
	}
	var calls atomic.Int32
	eval := func(r rule.Rule) bool {
		calls.Add(1)
		return r.Priority > 1
	}

	got, err := e.EvaluateRules(context.Background(), rules, eval)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{rules[0].ID: false, rules[1].ID: true}, got)
	assert.Equal(t, int32(2), calls.Load())

	got, err = e.EvaluateRules(context.Background(), rules, eval)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, int32(2), calls.Load(), "second evaluation must hit the cache")
	assert.Equal(t, uint64(2), e.Metrics().Counter("cache.hits"))
}

func TestEngine_EvaluateRulesRejectsInvalid(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.EvaluateRules(context.Background(), []rule.Rule{{ID: "x", Active: true}}, func(rule.Rule) bool { return true })
	assert.ErrorIs(t, err, rule.ErrEmptyExpression)

	_, err = e.EvaluateRules(context.Background(), nil, nil)
	assert.Equal(t, api.ErrCodeInvalidArgument, api.CodeOf(err))
}

func TestEngine_EvaluateRulesRejectsDuplicateIDs(t *testing.T) {
	e := newTestEngine(t)
	a := rule.New("a", "1", 0)
	b := a
	b.Name = "b"

	var calls atomic.Int32
	eval := func(rule.Rule) bool { calls.Add(1); return true }
	_, err := e.EvaluateRules(context.Background(), []rule.Rule{a, b}, eval)
	assert.ErrorIs(t, err, rule.ErrDuplicateID)
	assert.Equal(t, api.ErrCodeInvalidArgument, api.CodeOf(err))
	assert.Zero(t, calls.Load())

	// An inactive duplicate is ignored.
	b.Active = false
	got, err := e.EvaluateRules(context.Background(), []rule.Rule{a, b}, eval)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{a.ID: true}, got)
}

func TestEngine_EvaluateRulesPanickingEvaluator(t *testing.T) {
	e := newTestEngine(t)
	rules := []rule.Rule{rule.New("ok", "1", 0), rule.New("bad", "2", 0)}
	got, err := e.EvaluateRules(context.Background(), rules, func(r rule.Rule) bool {
		if r.Name == "bad" {
			panic("evaluator failure")
		}
		return true
	})
	require.Error(t, err)
	assert.Equal(t, api.ErrCodeInternal, api.CodeOf(err))
	assert.Equal(t, map[string]bool{rules[0].ID: true}, got)
	require.Eventually(t, func() bool {
		return e.Metrics().Counter("executor.task_panics") == 1
	}, time.Second, time.Millisecond)
}

func TestEngine_ApplySettings(t *testing.T) {
	e := newTestEngine(t)
	s := control.DefaultSettings()
	s.Cache.TTL = "90s"
	require.NoError(t, e.ApplySettings(s))
	assert.Equal(t, 90*time.Second, e.Cache().TTL())
	assert.Equal(t, "90s", e.Settings().Snapshot().Cache.TTL)

	bad := control.DefaultSettings()
	bad.Log.Level = "shout"
	assert.Error(t, e.ApplySettings(bad))
	assert.Error(t, e.ApplySettings(nil))
}

func TestEngine_MaintenanceUpdatesGauges(t *testing.T) {
	e := newTestEngine(t)
	e.Cache().InsertWithTTL("stale", true, time.Nanosecond)
	time.Sleep(time.Millisecond)
	e.MemoryBlock()

	e.maintain()
	assert.Equal(t, uint64(1), e.Metrics().Counter("cache.purged"))
	assert.Equal(t, int64(0), e.Metrics().Gauge("cache.entries"))
	assert.Equal(t, int64(1), e.Metrics().Gauge("pool.allocated_blocks"))
}

func TestEngine_ControlStats(t *testing.T) {
	e := newTestEngine(t)
	e.MemoryBlock()
	stats := e.Control().Stats()
	assert.Equal(t, int64(1), stats["pool.blocks_handed"])
	assert.Contains(t, stats, "debug.executor.stats")
}

func TestEngine_ShutdownIsIdempotent(t *testing.T) {
	e, err := New(nil, logx.Nop())
	require.NoError(t, err)
	require.NoError(t, e.Shutdown())
	require.NoError(t, e.Shutdown())

	err = e.ProcessParallel(context.Background(), []func(){func() {}})
	assert.ErrorIs(t, err, concurrency.ErrExecutorClosed)
	assert.Equal(t, concurrency.StateStopped, e.Executor().Stats().State)
}
