package comm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentlink/core"
)

func TestHandlerTableRegisterAndGet(t *testing.T) {
	table := NewHandlerTable(nil)

	table.Register("ping", func(_ context.Context, _ map[string]any) (map[string]any, error) {
		return map[string]any{"pong": true}, nil
	})

	h, ok := table.Get("ping")
	require.True(t, ok)
	result, err := h(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, true, result["pong"])

	_, ok = table.Get("missing")
	assert.False(t, ok)
}

func TestHandlerTableReplaceLastWins(t *testing.T) {
	table := NewHandlerTable(nil)

	var first core.Handler = func(_ context.Context, _ map[string]any) (map[string]any, error) {
		return map[string]any{"version": 1}, nil
	}
	var second core.Handler = func(_ context.Context, _ map[string]any) (map[string]any, error) {
		return map[string]any{"version": 2}, nil
	}

	table.Register("ping", first)
	table.Register("ping", second)

	h, ok := table.Get("ping")
	require.True(t, ok)
	result, err := h(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result["version"])
	assert.Equal(t, 1, table.Len())
}

func TestHandlerTableMethodsSorted(t *testing.T) {
	table := NewHandlerTable(nil)
	noop := func(_ context.Context, _ map[string]any) (map[string]any, error) { return nil, nil }

	table.Register("zeta", noop)
	table.Register("alpha", noop)
	table.Register("mid", noop)

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, table.Methods())
}
