package control_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/momentics/hioload-exec/control"
)

func TestSettingsStore_SnapshotAndReload(t *testing.T) {
	st := control.NewSettingsStore(nil)
	assert.Equal(t, "info", st.Snapshot().Log.Level)

	var got []string
	st.OnReload(func(s *control.Settings) { got = append(got, "a:"+s.Log.Level) })
	st.OnReload(func(s *control.Settings) { got = append(got, "b:"+s.Log.Level) })
	st.OnReload(nil)

	next := control.DefaultSettings()
	next.Log.Level = "debug"
	st.Store(next)

	assert.Equal(t, []string{"a:debug", "b:debug"}, got)
	assert.Equal(t, "debug", st.Snapshot().Log.Level)

	// The store keeps its own copy.
	next.Log.Level = "error"
	assert.Equal(t, "debug", st.Snapshot().Log.Level)
}

func TestSettingsStore_ListenerMayRegisterListener(t *testing.T) {
	st := control.NewSettingsStore(nil)

	calls := 0
	st.OnReload(func(*control.Settings) {
		calls++
		st.OnReload(func(*control.Settings) { calls += 10 })
	})

	st.Store(control.DefaultSettings())
	assert.Equal(t, 1, calls, "listener added during Store runs from the next Store")

	st.Store(control.DefaultSettings())
	assert.Equal(t, 12, calls)
}
