// Package adapters
// Author: momentics <momentics@gmail.com>
//
// Control adapter implementing api.Control interface using control package primitives.

package adapters

import (
	"github.com/momentics/hioload-exec/api"
	"github.com/momentics/hioload-exec/control"
)

type ControlAdapter struct {
	settings *control.SettingsStore
	metrics  *control.MetricsCollector
	debug    *control.DebugProbes
}

// NewControlAdapter builds an api.Control over existing control primitives.
// Nil arguments are replaced by fresh instances.
func NewControlAdapter(settings *control.SettingsStore, metrics *control.MetricsCollector, debug *control.DebugProbes) *ControlAdapter {
	if settings == nil {
		settings = control.NewSettingsStore(nil)
	}
	if metrics == nil {
		metrics = control.NewMetricsCollector()
	}
	if debug == nil {
		debug = control.NewDebugProbes()
		control.RegisterPlatformProbes(debug)
	}
	return &ControlAdapter{settings: settings, metrics: metrics, debug: debug}
}

// Stats merges metrics with probe output; probe keys get a "debug." prefix.
func (c *ControlAdapter) Stats() map[string]any {
	combined := c.metrics.GetSnapshot()
	for k, v := range c.debug.DumpState() {
		combined["debug."+k] = v
	}
	return combined
}

func (c *ControlAdapter) OnReload(fn func()) {
	if fn == nil {
		return
	}
	c.settings.OnReload(func(*control.Settings) { fn() })
}

func (c *ControlAdapter) RegisterDebugProbe(name string, fn func() any) {
	c.debug.RegisterProbe(name, fn)
}

var _ api.Control = (*ControlAdapter)(nil)
