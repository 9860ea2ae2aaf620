package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentConfigValidate(t *testing.T) {
	cfg := AgentConfig{Name: "worker", CommunicatorType: "inproc"}
	assert.NoError(t, cfg.Validate())
}

func TestAgentConfigValidateMissingName(t *testing.T) {
	cfg := AgentConfig{CommunicatorType: "inproc"}

	err := cfg.Validate()
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Reason, "name")
}

func TestAgentConfigValidateMissingCommunicatorType(t *testing.T) {
	cfg := AgentConfig{Name: "worker"}

	err := cfg.Validate()
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Reason, "communicator type")
}

func TestAgentConfigCloneOptions(t *testing.T) {
	cfg := AgentConfig{
		Name:                "worker",
		CommunicatorType:    "http",
		CommunicatorOptions: map[string]any{"listen": "127.0.0.1:0"},
	}

	clone := cfg.CloneOptions()
	clone["listen"] = "mutated"

	assert.Equal(t, "127.0.0.1:0", cfg.CommunicatorOptions["listen"])
}

func TestAgentConfigCloneOptionsNeverNil(t *testing.T) {
	cfg := AgentConfig{Name: "worker", CommunicatorType: "inproc"}
	assert.NotNil(t, cfg.CloneOptions())
	assert.NotNil(t, cfg.CloneServiceURLs())
}

func TestAgentConfigCloneServiceURLs(t *testing.T) {
	cfg := AgentConfig{
		Name:             "worker",
		CommunicatorType: "http",
		ServiceURLs:      map[string]string{"indexer": "http://127.0.0.1:9000"},
	}

	clone := cfg.CloneServiceURLs()
	clone["indexer"] = "mutated"

	assert.Equal(t, "http://127.0.0.1:9000", cfg.ServiceURLs["indexer"])
}
