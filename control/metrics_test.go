package control_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-exec/control"
)

func find(t *testing.T, ms []control.Metric, name string) control.Metric {
	t.Helper()
	for _, m := range ms {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("metric %q not found", name)
	return control.Metric{}
}

func TestMetrics_Counter(t *testing.T) {
	mc := control.NewMetricsCollector()
	mc.IncrementCounter("tasks", 1)
	mc.IncrementCounter("tasks", 2)

	ms := mc.Snapshot()
	require.Len(t, ms, 1)
	assert.Equal(t, control.KindCounter, ms[0].Kind)
	assert.Equal(t, int64(3), ms[0].Value)
	assert.Equal(t, uint64(3), mc.Counter("tasks"))
}

func TestMetrics_Gauge(t *testing.T) {
	mc := control.NewMetricsCollector()
	mc.SetGauge("pending", 10)
	mc.AddGauge("pending", 5)
	mc.DecrementGauge("pending", 7)
	mc.DecrementGauge("fresh", 2)

	assert.Equal(t, int64(8), mc.Gauge("pending"))
	assert.Equal(t, int64(-2), mc.Gauge("fresh"))
}

func TestMetrics_Timing(t *testing.T) {
	mc := control.NewMetricsCollector()
	mc.RecordTiming("eval", 100*time.Millisecond)
	mc.RecordTiming("eval", 200*time.Millisecond)

	ms := mc.Snapshot()
	require.Len(t, ms, 2)
	assert.Equal(t, 150*time.Millisecond, find(t, ms, "eval_avg").Duration)
	assert.Equal(t, int64(2), find(t, ms, "eval_count").Value)
}

func TestMetrics_StartTimer(t *testing.T) {
	mc := control.NewMetricsCollector()
	stop := mc.StartTimer("work")
	time.Sleep(2 * time.Millisecond)
	stop()

	avg := find(t, mc.Snapshot(), "work_avg")
	assert.GreaterOrEqual(t, avg.Duration, 2*time.Millisecond)
}

func TestMetrics_Histogram(t *testing.T) {
	mc := control.NewMetricsCollector()
	for i := int64(1); i <= 100; i++ {
		mc.RecordHistogram("latency", i)
	}
	ms := mc.Snapshot()
	require.Len(t, ms, 4)
	assert.Equal(t, int64(51), find(t, ms, "latency_p50").Value)
	assert.Equal(t, int64(91), find(t, ms, "latency_p90").Value)
	assert.Equal(t, int64(100), find(t, ms, "latency_p99").Value)
	assert.Equal(t, int64(100), find(t, ms, "latency_count").Value)
}

func TestMetrics_SnapshotSortedAndReset(t *testing.T) {
	mc := control.NewMetricsCollector()
	mc.IncrementCounter("b", 1)
	mc.SetGauge("a", 1)
	mc.RecordTiming("c", time.Millisecond)

	ms := mc.Snapshot()
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.Name
	}
	assert.Equal(t, []string{"a", "b", "c_avg", "c_count"}, names)
	assert.Equal(t, int64(1), mc.GetSnapshot()["b"])

	mc.Reset()
	assert.Empty(t, mc.Snapshot())
}

func TestMetrics_Concurrent(t *testing.T) {
	mc := control.NewMetricsCollector()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				mc.IncrementCounter("n", 1)
				mc.RecordHistogram("h", int64(i))
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(8000), mc.Counter("n"))
	assert.Equal(t, int64(8000), find(t, mc.Snapshot(), "h_count").Value)
}
