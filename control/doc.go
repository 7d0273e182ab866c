// Package control
// Author: momentics <momentics@gmail.com>
//
// Hot-reload, runtime metrics, configuration control, and debug introspection layer.
// Part of the hioload-exec runtime.
//
// Provides concurrent-safe state handling primitives including:
//   - YAML settings with strict decoding and validation
//   - Immutable snapshot reads and atomic updates with reload listeners
//   - File watching for hot reload
//   - Counters, gauges, timings and histograms
//   - State export, debug hooks, and probe registration
package control
