package adapters_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-exec/adapters"
	"github.com/momentics/hioload-exec/api"
	"github.com/momentics/hioload-exec/core/concurrency"
)

func TestExecutorAdapter(t *testing.T) {
	cfg := concurrency.DefaultConfig()
	cfg.NumWorkers = 2
	var exec api.Executor = adapters.NewExecutorAdapter(cfg)
	assert.Equal(t, 2, exec.NumWorkers())

	var wg sync.WaitGroup
	wg.Add(10)
	for i := 0; i < 10; i++ {
		require.NoError(t, exec.Submit(wg.Done))
	}
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("tasks did not run")
	}

	err := exec.Submit(nil)
	assert.Equal(t, api.ErrCodeInvalidArgument, api.CodeOf(err))

	exec.Shutdown()
	err = exec.Submit(func() {})
	assert.Equal(t, api.ErrCodeShutdown, api.CodeOf(err))
	assert.ErrorIs(t, err, concurrency.ErrExecutorClosed)
	assert.ErrorIs(t, err, api.ErrShutdown)
	assert.Equal(t, 0, exec.PendingTasks())
}
