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

func startedPair(t *testing.T) (*InProc, *InProc, *Exchange) {
	t.Helper()

	exchange := NewExchange()
	a := NewInProc("a", exchange)
	b := NewInProc("b", exchange)

	ctx := context.Background()
	require.NoError(t, a.Start(ctx))
	require.NoError(t, b.Start(ctx))
	t.Cleanup(func() {
		_ = a.Stop(ctx)
		_ = b.Stop(ctx)
	})

	return a, b, exchange
}

func TestInProcRequestResponse(t *testing.T) {
	a, b, _ := startedPair(t)

	b.RegisterHandler("sum", func(_ context.Context, params map[string]any) (map[string]any, error) {
		x := params["x"].(int)
		y := params["y"].(int)
		return map[string]any{"sum": x + y}, nil
	})

	result, err := a.SendRequest(context.Background(), "b", "sum", map[string]any{"x": 2, "y": 3}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 5, result["sum"])
}

func TestInProcUnknownTarget(t *testing.T) {
	a, _, _ := startedPair(t)

	_, err := a.SendRequest(context.Background(), "ghost", "ping", nil, 0)
	require.Error(t, err)

	var nfErr *core.ServiceNotFoundError
	require.True(t, errors.As(err, &nfErr))
	assert.Equal(t, "ghost", nfErr.Target)
	assert.Equal(t, []string{"a", "b"}, nfErr.Known)
}

func TestInProcUnknownMethod(t *testing.T) {
	a, _, _ := startedPair(t)

	_, err := a.SendRequest(context.Background(), "b", "nope", nil, 0)
	require.Error(t, err)

	var nfErr *core.ServiceNotFoundError
	assert.False(t, errors.As(err, &nfErr), "missing handler is not a missing service")
	assert.Contains(t, err.Error(), `no handler for method "nope"`)
}

func TestInProcRequestTimeout(t *testing.T) {
	a, b, _ := startedPair(t)

	b.RegisterHandler("slow", func(ctx context.Context, _ map[string]any) (map[string]any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	_, err := a.SendRequest(context.Background(), "b", "slow", nil, 20*time.Millisecond)
	require.Error(t, err)

	var toErr *core.TimeoutError
	require.True(t, errors.As(err, &toErr))
	assert.Equal(t, "b", toErr.Target)
	assert.Equal(t, "slow", toErr.Method)
	assert.Equal(t, 20*time.Millisecond, toErr.Timeout)
}

func TestInProcHandlerError(t *testing.T) {
	a, b, _ := startedPair(t)

	boom := errors.New("boom")
	b.RegisterHandler("fail", func(_ context.Context, _ map[string]any) (map[string]any, error) {
		return nil, boom
	})

	_, err := a.SendRequest(context.Background(), "b", "fail", nil, time.Second)
	assert.ErrorIs(t, err, boom)
}

func TestInProcNotification(t *testing.T) {
	a, b, _ := startedPair(t)

	received := make(chan map[string]any, 1)
	b.RegisterHandler("event", func(_ context.Context, params map[string]any) (map[string]any, error) {
		received <- params
		return nil, nil
	})

	require.NoError(t, a.SendNotification(context.Background(), "b", "event", map[string]any{"n": 1}))

	select {
	case params := <-received:
		assert.Equal(t, 1, params["n"])
	case <-time.After(time.Second):
		t.Fatal("notification was not delivered")
	}
}

func TestInProcNotificationUnknownTarget(t *testing.T) {
	a, _, _ := startedPair(t)

	err := a.SendNotification(context.Background(), "ghost", "event", nil)

	var nfErr *core.ServiceNotFoundError
	assert.True(t, errors.As(err, &nfErr))
}

func TestInProcDuplicateServiceName(t *testing.T) {
	exchange := NewExchange()
	first := NewInProc("dup", exchange)
	second := NewInProc("dup", exchange)

	ctx := context.Background()
	require.NoError(t, first.Start(ctx))
	defer func() { _ = first.Stop(ctx) }()

	err := second.Start(ctx)
	require.Error(t, err)

	var cfgErr *core.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestInProcDoubleStart(t *testing.T) {
	exchange := NewExchange()
	c := NewInProc("a", exchange)

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	defer func() { _ = c.Stop(ctx) }()

	assert.Error(t, c.Start(ctx))
}

func TestInProcStopWithoutStart(t *testing.T) {
	exchange := NewExchange()
	c := NewInProc("a", exchange)

	assert.NoError(t, c.Stop(context.Background()))
}

func TestInProcStopDetaches(t *testing.T) {
	_, b, exchange := startedPair(t)

	require.NoError(t, b.Stop(context.Background()))
	assert.Equal(t, []string{"a"}, exchange.Names())
}

func TestInProcFactoryServiceOverride(t *testing.T) {
	exchange := NewExchange()
	factory := InProcFactory(exchange)

	c, err := factory(core.AgentConfig{
		Name:                "worker",
		CommunicatorType:    TypeInProc,
		CommunicatorOptions: map[string]any{"service": "custom-name"},
	})
	require.NoError(t, err)

	inproc, ok := c.(*InProc)
	require.True(t, ok)
	assert.Equal(t, "custom-name", inproc.Service())
}
