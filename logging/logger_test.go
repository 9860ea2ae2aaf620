package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLogLevel("debug"))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("info"))
	assert.Equal(t, LogLevelWarn, ParseLogLevel("warn"))
	assert.Equal(t, LogLevelWarn, ParseLogLevel("warning"))
	assert.Equal(t, LogLevelError, ParseLogLevel("error"))

	// Case and whitespace tolerant; unknown or empty falls back to info.
	assert.Equal(t, LogLevelDebug, ParseLogLevel("  DEBUG "))
	assert.Equal(t, LogLevelInfo, ParseLogLevel(""))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("verbose"))
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.String())
	assert.Equal(t, "INFO", LogLevelInfo.String())
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.Equal(t, "ERROR", LogLevelError.String())
	assert.Equal(t, "UNKNOWN", LogLevel(99).String())
}

func newBufferedLogger(level LogLevel) (*AgentLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	cfg.Output = buf
	return NewLogger(cfg), buf
}

func TestAgentLoggerLevelFiltering(t *testing.T) {
	logger, buf := newBufferedLogger(LogLevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	assert.Zero(t, buf.Len(), "entries below the configured level are dropped")

	logger.Warn("warn message")
	assert.NotZero(t, buf.Len())
}

func TestAgentLoggerContextAttrs(t *testing.T) {
	logger, buf := newBufferedLogger(LogLevelInfo)

	logger.WithAgent("worker").WithComponent("runner").Info("lifecycle event")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "worker", entry["agent_name"])
	assert.Equal(t, "runner", entry["component"])
	assert.Equal(t, "lifecycle event", entry["msg"])
}

func TestAgentLoggerWithHelpersClone(t *testing.T) {
	base, buf := newBufferedLogger(LogLevelInfo)
	derived := base.WithAgent("worker")

	base.Info("plain entry")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	_, ok := entry["agent_name"]
	assert.False(t, ok, "With* helpers must not mutate the receiver")

	buf.Reset()
	derived.Info("derived entry")
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "worker", entry["agent_name"])
}
