package agentlink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentlink/agent"
	"github.com/hupe1980/agentlink/core"
	"github.com/hupe1980/agentlink/internal/testutil"
	"github.com/hupe1980/agentlink/logging"
)

func TestRunCompletesLifecycle(t *testing.T) {
	fake := testutil.NewFakeCommunicator()

	a, err := agent.NewFunc("worker", func(_ context.Context, _ core.Runtime) error {
		return nil
	})
	require.NoError(t, err)

	al := New(a, func(o *Options) {
		o.Communicator = fake
	})

	require.NoError(t, al.Run(context.Background()))
	assert.Equal(t, core.StateStopped, al.State())
	assert.Equal(t, 1, fake.StartCalls())
	assert.Equal(t, 1, fake.StopCalls())
}

func TestRunReturnsRunError(t *testing.T) {
	boom := errors.New("boom")
	a, err := agent.NewFunc("worker", func(_ context.Context, _ core.Runtime) error {
		return boom
	})
	require.NoError(t, err)

	al := New(a, func(o *Options) {
		o.Communicator = testutil.NewFakeCommunicator()
	})

	assert.ErrorIs(t, al.Run(context.Background()), boom)
	assert.Equal(t, core.StateStopped, al.State())
}

func TestRunStopsOnContextCancel(t *testing.T) {
	a, err := agent.NewFunc("worker", func(ctx context.Context, _ core.Runtime) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)

	al := New(a, func(o *Options) {
		o.Communicator = testutil.NewFakeCommunicator()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- al.Run(ctx) }()

	require.Eventually(t, func() bool { return al.State() == core.StateRunning }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err, "cancellation-driven teardown is not a failure")
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}

	assert.Equal(t, core.StateStopped, al.State())
}

func TestDefaultLoggerFollowsConfigLevel(t *testing.T) {
	assert.IsType(t, logging.NoOpLogger{}, defaultLogger(""))
	assert.IsType(t, &logging.AgentLogger{}, defaultLogger("debug"))
	assert.IsType(t, &logging.AgentLogger{}, defaultLogger("warn"))
}

func TestStartStopRoundTrip(t *testing.T) {
	a, err := agent.NewFunc("worker", func(ctx context.Context, _ core.Runtime) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)

	al := New(a, func(o *Options) {
		o.Communicator = testutil.NewFakeCommunicator()
	})

	require.NoError(t, al.Start(context.Background()))
	assert.Equal(t, core.StateRunning, al.State())
	require.NoError(t, al.Stop(context.Background()))
	assert.Equal(t, core.StateStopped, al.State())
}
