package control_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/momentics/hioload-exec/control"
)

func TestDebugProbes(t *testing.T) {
	dp := control.NewDebugProbes()
	dp.RegisterProbe("answer", func() any { return 42 })
	dp.RegisterProbe("broken", func() any { panic("nope") })

	state := dp.DumpState()
	assert.Equal(t, 42, state["answer"])
	assert.Contains(t, state["broken"], "nope")

	dp.RegisterProbe("broken", nil)
	assert.Equal(t, []string{"answer"}, dp.Names())
}

func TestRegisterPlatformProbes(t *testing.T) {
	dp := control.NewDebugProbes()
	control.RegisterPlatformProbes(dp)
	state := dp.DumpState()
	assert.Positive(t, state["platform.cpus"])
	assert.Positive(t, state["platform.cpus_allowed"])
	assert.Contains(t, dp.Names(), "platform.cpu_features")
}
