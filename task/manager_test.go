package task

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnRunsAndUntracks(t *testing.T) {
	m := New()

	ran := make(chan struct{})
	task, err := m.Spawn(context.Background(), "worker", func(_ context.Context) error {
		close(ran)
		return nil
	})
	require.NoError(t, err)

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}

	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("task did not complete")
	}

	assert.NoError(t, task.Err())
	assert.Equal(t, "worker", task.Name())
	assert.NotEmpty(t, task.ID())

	// Completion removes the task from the tracked set.
	assert.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestSpawnNilFn(t *testing.T) {
	m := New()

	_, err := m.Spawn(context.Background(), "worker", nil)
	assert.Error(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestTaskErrSurfacesFailure(t *testing.T) {
	m := New()

	boom := errors.New("boom")
	task, err := m.Spawn(context.Background(), "worker", func(_ context.Context) error {
		return boom
	})
	require.NoError(t, err)

	<-task.Done()
	assert.ErrorIs(t, task.Err(), boom)
}

func TestTaskCancel(t *testing.T) {
	m := New()

	task, err := m.Spawn(context.Background(), "parked", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)

	task.Cancel()

	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("task did not observe cancellation")
	}

	assert.ErrorIs(t, task.Err(), context.Canceled)
}

func TestCancelAllEmptiesSet(t *testing.T) {
	m := New()

	const n = 5
	for i := 0; i < n; i++ {
		_, err := m.Spawn(context.Background(), "parked", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
		require.NoError(t, err)
	}
	require.Equal(t, n, m.Len())

	m.CancelAll(context.Background())
	assert.Equal(t, 0, m.Len())
}

func TestCancelAllWithFinishedTasks(t *testing.T) {
	m := New()

	task, err := m.Spawn(context.Background(), "quick", func(_ context.Context) error {
		return nil
	})
	require.NoError(t, err)
	<-task.Done()

	// Must not block or panic with an already finished (untracked) task.
	m.CancelAll(context.Background())
	assert.Equal(t, 0, m.Len())
}

func TestCancelAllAbandonsStuckTask(t *testing.T) {
	m := New()

	release := make(chan struct{})
	_, err := m.Spawn(context.Background(), "stubborn", func(_ context.Context) error {
		<-release
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		m.CancelAll(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("CancelAll blocked on a task that ignores cancellation")
	}

	assert.Equal(t, 0, m.Len())
	close(release)
}

func TestMaxConcurrentTasks(t *testing.T) {
	m := New(func(o *Options) {
		o.MaxConcurrentTasks = 1
	})

	var running atomic.Int32
	var peak atomic.Int32
	release := make(chan struct{})

	for i := 0; i < 3; i++ {
		_, err := m.Spawn(context.Background(), "limited", func(_ context.Context) error {
			cur := running.Add(1)
			for {
				old := peak.Load()
				if cur <= old || peak.CompareAndSwap(old, cur) {
					break
				}
			}
			<-release
			running.Add(-1)
			return nil
		})
		require.NoError(t, err)
	}

	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, peak.Load(), int32(1))

	close(release)
	assert.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)
}
