package logx

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger_ZeroValueIsNoop(t *testing.T) {
	var l Logger
	assert.True(t, l.IsZero())
	assert.False(t, l.Enabled(LevelError))
	l.Error("ignored", String("k", "v"))
	l.SetLevel("debug")
}

func TestLogger_WritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "info").With(String("component", "executor"))

	l.Info("worker started", Int("worker", 3), Err(errors.New("boom")))

	out := buf.String()
	assert.Contains(t, out, `"component":"executor"`)
	assert.Contains(t, out, `"worker":3`)
	assert.Contains(t, out, `"err":"boom"`)
	assert.Contains(t, out, `"message":"worker started"`)
}

func TestLogger_SetLevelIsShared(t *testing.T) {
	var buf bytes.Buffer
	root := New(&buf, "info")
	child := root.With(String("sub", "x"))

	child.Debug("hidden")
	assert.Empty(t, buf.String())

	root.SetLevel("debug")
	assert.True(t, child.Enabled(LevelDebug))
	child.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelWarn, ParseLevel("warning", LevelInfo))
	assert.Equal(t, LevelInfo, ParseLevel("bogus", LevelInfo))
	assert.Equal(t, LevelTrace, ParseLevel(" TRACE ", LevelInfo))
}

func TestValidLevel(t *testing.T) {
	assert.True(t, ValidLevel("debug"))
	assert.True(t, ValidLevel("OFF"))
	assert.False(t, ValidLevel("verbose"))
	assert.False(t, ValidLevel(""))
}
