package comm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentlink/core"
)

func TestMockLoopback(t *testing.T) {
	m := NewMock()
	m.RegisterHandler("echo", func(_ context.Context, params map[string]any) (map[string]any, error) {
		return params, nil
	})

	result, err := m.SendRequest(context.Background(), "anyone", "echo", map[string]any{"k": "v"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "v", result["k"])
}

func TestMockUnregisteredMethod(t *testing.T) {
	m := NewMock()

	_, err := m.SendRequest(context.Background(), "anyone", "nope", nil, 0)

	var nfErr *core.ServiceNotFoundError
	assert.True(t, errors.As(err, &nfErr))
}

func TestMockRecordsCalls(t *testing.T) {
	m := NewMock()
	m.RegisterHandler("echo", func(_ context.Context, params map[string]any) (map[string]any, error) {
		return params, nil
	})

	_, _ = m.SendRequest(context.Background(), "svc", "echo", map[string]any{"n": 1}, 0)
	require.NoError(t, m.SendNotification(context.Background(), "svc", "event", nil))

	calls := m.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, MockCall{Kind: "request", Target: "svc", Method: "echo", Params: map[string]any{"n": 1}}, calls[0])
	assert.Equal(t, "notification", calls[1].Kind)
	assert.Equal(t, "event", calls[1].Method)
}

func TestMockRequestFuncOverride(t *testing.T) {
	m := NewMock()
	m.RequestFunc = func(_ context.Context, _, _ string, _ map[string]any, _ time.Duration) (map[string]any, error) {
		return map[string]any{"scripted": true}, nil
	}

	result, err := m.SendRequest(context.Background(), "svc", "anything", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, true, result["scripted"])
}

func TestMockStartStopErrors(t *testing.T) {
	m := NewMock()
	m.StartErr = errors.New("start boom")
	assert.Error(t, m.Start(context.Background()))
	assert.False(t, m.Started())

	m.StartErr = nil
	require.NoError(t, m.Start(context.Background()))
	assert.True(t, m.Started())

	m.StopErr = errors.New("stop boom")
	assert.Error(t, m.Stop(context.Background()))
	assert.False(t, m.Started())
}
