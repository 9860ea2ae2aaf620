package mcpcomm

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentlink/core"
)

func TestDecodeToolResult(t *testing.T) {
	result := mcp.NewToolResultText(`{"pong": true, "count": 3}`)

	out, err := decodeToolResult("pong-service", result)
	require.NoError(t, err)
	assert.Equal(t, true, out["pong"])
	assert.Equal(t, float64(3), out["count"])
}

func TestDecodeToolResultEmpty(t *testing.T) {
	result := &mcp.CallToolResult{}

	out, err := decodeToolResult("pong-service", result)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDecodeToolResultRemoteError(t *testing.T) {
	result := mcp.NewToolResultError("handler boom")

	_, err := decodeToolResult("pong-service", result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler boom")
	assert.Contains(t, err.Error(), `"pong-service"`)
}

func TestDecodeToolResultMalformedJSON(t *testing.T) {
	result := mcp.NewToolResultText("not json")

	_, err := decodeToolResult("pong-service", result)
	assert.Error(t, err)
}

func TestFactoryListenOption(t *testing.T) {
	factory := Factory()

	c, err := factory(core.AgentConfig{
		Name:                "worker",
		CommunicatorType:    "mcp",
		CommunicatorOptions: map[string]any{"listen": "127.0.0.1:0"},
	})
	require.NoError(t, err)
	assert.IsType(t, &Communicator{}, c)
}

func TestFactoryRejectsNonStringListen(t *testing.T) {
	factory := Factory()

	_, err := factory(core.AgentConfig{
		Name:                "worker",
		CommunicatorType:    "mcp",
		CommunicatorOptions: map[string]any{"listen": 8283},
	})
	require.Error(t, err)

	var cfgErr *core.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestSendRequestUnknownTarget(t *testing.T) {
	c := New("worker", func(o *Options) {
		o.Listen = ""
	})

	_, err := c.SendRequest(context.Background(), "ghost", "ping", nil, 0)

	var nfErr *core.ServiceNotFoundError
	assert.True(t, errors.As(err, &nfErr))
}

func TestSendNotificationUnknownTarget(t *testing.T) {
	c := New("worker", func(o *Options) {
		o.Listen = ""
	})

	err := c.SendNotification(context.Background(), "ghost", "event", nil)

	var nfErr *core.ServiceNotFoundError
	assert.True(t, errors.As(err, &nfErr))
}

func TestStopWithoutStart(t *testing.T) {
	c := New("worker")
	assert.NoError(t, c.Stop(context.Background()))
}

func TestStartSendOnly(t *testing.T) {
	c := New("worker", func(o *Options) {
		o.Listen = ""
	})

	require.NoError(t, c.Start(context.Background()))
	assert.Empty(t, c.Addr())
	assert.NoError(t, c.Stop(context.Background()))
}
