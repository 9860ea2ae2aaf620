package comm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentlink/core"
)

func TestDiscoverEntryPoints(t *testing.T) {
	r := NewRegistry()

	r.Discover(nil, func() []EntryPoint {
		return []EntryPoint{
			func(r *Registry) error {
				r.Register("custom", MockFactory())
				return nil
			},
		}
	})

	_, err := r.Resolve(testConfig("custom"))
	assert.NoError(t, err)
}

func TestDiscoverIsIdempotent(t *testing.T) {
	r := NewRegistry()

	enumerate := func() []EntryPoint {
		return []EntryPoint{
			func(r *Registry) error {
				r.Register("custom", MockFactory())
				return nil
			},
		}
	}

	r.Discover(nil, enumerate)
	r.Discover(nil, enumerate)

	assert.Equal(t, 1, r.Len())
}

func TestDiscoverFailingEntryPointIsSkipped(t *testing.T) {
	r := NewRegistry()

	r.Discover(nil, func() []EntryPoint {
		return []EntryPoint{
			func(_ *Registry) error { return errors.New("broken plugin") },
			nil,
			func(r *Registry) error {
				r.Register("healthy", MockFactory())
				return nil
			},
		}
	})

	// The broken entry point must not prevent later ones from registering.
	c, err := r.Resolve(core.AgentConfig{Name: "worker", CommunicatorType: "healthy"})
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestDiscoverMissingDirectory(t *testing.T) {
	r := NewRegistry()

	// A nonexistent extension directory is skipped silently.
	r.Discover([]string{t.TempDir() + "/does-not-exist"}, nil)
	assert.Equal(t, 0, r.Len())
}

func TestDiscoverIgnoresNonPluginFiles(t *testing.T) {
	r := NewRegistry()

	dir := t.TempDir()
	r.Discover([]string{dir}, nil)
	assert.Equal(t, 0, r.Len())
}
