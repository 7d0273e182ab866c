// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics collector for system-level monitoring.
// Counters, gauges, timings and histograms keyed by name.

package control

import (
	"sort"
	"sync"
	"time"
)

// MetricKind tells how Metric.Value is to be read.
type MetricKind int

const (
	KindCounter MetricKind = iota
	KindGauge
	KindTiming
)

func (k MetricKind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindGauge:
		return "gauge"
	case KindTiming:
		return "timing"
	default:
		return "unknown"
	}
}

// Metric is one exported value. Timings carry Duration; counters and gauges
// carry Value.
type Metric struct {
	Name      string
	Kind      MetricKind
	Value     int64
	Duration  time.Duration
	Timestamp time.Time
}

// maxSamples bounds each timing and histogram series; older samples are
// overwritten.
const maxSamples = 4096

type series[T any] struct {
	samples []T
	next    int
	total   uint64
}

func (s *series[T]) add(v T) {
	s.total++
	if len(s.samples) < maxSamples {
		s.samples = append(s.samples, v)
		return
	}
	s.samples[s.next] = v
	s.next = (s.next + 1) % maxSamples
}

// MetricsCollector is safe for concurrent use.
type MetricsCollector struct {
	mu         sync.RWMutex
	counters   map[string]uint64
	gauges     map[string]int64
	timings    map[string]*series[time.Duration]
	histograms map[string]*series[int64]
	now        func() time.Time
}

// NewMetricsCollector creates an empty collector.
func NewMetricsCollector() *MetricsCollector {
	mc := &MetricsCollector{now: time.Now}
	mc.init()
	return mc
}

func (mc *MetricsCollector) init() {
	mc.counters = make(map[string]uint64)
	mc.gauges = make(map[string]int64)
	mc.timings = make(map[string]*series[time.Duration])
	mc.histograms = make(map[string]*series[int64])
}

func (mc *MetricsCollector) IncrementCounter(name string, delta uint64) {
	mc.mu.Lock()
	mc.counters[name] += delta
	mc.mu.Unlock()
}

func (mc *MetricsCollector) SetGauge(name string, v int64) {
	mc.mu.Lock()
	mc.gauges[name] = v
	mc.mu.Unlock()
}

func (mc *MetricsCollector) AddGauge(name string, delta int64) {
	mc.mu.Lock()
	mc.gauges[name] += delta
	mc.mu.Unlock()
}

func (mc *MetricsCollector) DecrementGauge(name string, delta int64) {
	mc.AddGauge(name, -delta)
}

func (mc *MetricsCollector) RecordTiming(name string, d time.Duration) {
	mc.mu.Lock()
	s := mc.timings[name]
	if s == nil {
		s = &series[time.Duration]{}
		mc.timings[name] = s
	}
	s.add(d)
	mc.mu.Unlock()
}

// StartTimer returns a function that records the elapsed time under name
// when called.
func (mc *MetricsCollector) StartTimer(name string) (stop func()) {
	start := time.Now()
	return func() { mc.RecordTiming(name, time.Since(start)) }
}

func (mc *MetricsCollector) RecordHistogram(name string, v int64) {
	mc.mu.Lock()
	s := mc.histograms[name]
	if s == nil {
		s = &series[int64]{}
		mc.histograms[name] = s
	}
	s.add(v)
	mc.mu.Unlock()
}

// Counter returns the current value of a counter.
func (mc *MetricsCollector) Counter(name string) uint64 {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.counters[name]
}

// Gauge returns the current value of a gauge.
func (mc *MetricsCollector) Gauge(name string) int64 {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.gauges[name]
}

// Snapshot exports every series, sorted by name. A timing named t becomes
// t_avg and t_count; a histogram h becomes h_p50, h_p90, h_p99 and h_count.
// Percentiles and averages cover the retained samples, counts cover all.
func (mc *MetricsCollector) Snapshot() []Metric {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	ts := mc.now()
	out := make([]Metric, 0, len(mc.counters)+len(mc.gauges)+2*len(mc.timings)+4*len(mc.histograms))
	for name, v := range mc.counters {
		out = append(out, Metric{Name: name, Kind: KindCounter, Value: int64(v), Timestamp: ts})
	}
	for name, v := range mc.gauges {
		out = append(out, Metric{Name: name, Kind: KindGauge, Value: v, Timestamp: ts})
	}
	for name, s := range mc.timings {
		if len(s.samples) == 0 {
			continue
		}
		var sum time.Duration
		for _, d := range s.samples {
			sum += d
		}
		out = append(out,
			Metric{Name: name + "_avg", Kind: KindTiming, Duration: sum / time.Duration(len(s.samples)), Timestamp: ts},
			Metric{Name: name + "_count", Kind: KindCounter, Value: int64(s.total), Timestamp: ts},
		)
	}
	for name, s := range mc.histograms {
		if len(s.samples) == 0 {
			continue
		}
		sorted := append([]int64(nil), s.samples...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		out = append(out,
			Metric{Name: name + "_p50", Kind: KindGauge, Value: percentile(sorted, 0.50), Timestamp: ts},
			Metric{Name: name + "_p90", Kind: KindGauge, Value: percentile(sorted, 0.90), Timestamp: ts},
			Metric{Name: name + "_p99", Kind: KindGauge, Value: percentile(sorted, 0.99), Timestamp: ts},
			Metric{Name: name + "_count", Kind: KindCounter, Value: int64(s.total), Timestamp: ts},
		)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// GetSnapshot flattens Snapshot into a name -> value map.
func (mc *MetricsCollector) GetSnapshot() map[string]any {
	ms := mc.Snapshot()
	out := make(map[string]any, len(ms))
	for _, m := range ms {
		if m.Kind == KindTiming {
			out[m.Name] = m.Duration
		} else {
			out[m.Name] = m.Value
		}
	}
	return out
}

// Reset drops every series.
func (mc *MetricsCollector) Reset() {
	mc.mu.Lock()
	mc.init()
	mc.mu.Unlock()
}

// percentile uses the nearest-rank-below index floor(len*p).
func percentile(sorted []int64, p float64) int64 {
	i := int(float64(len(sorted)) * p)
	if i >= len(sorted) {
		i = len(sorted) - 1
	}
	return sorted[i]
}
