package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentlink/core"
)

// Base bundles shared identity helpers and default lifecycle hooks. Embed it
// in concrete agent implementations and supply a Run method to satisfy the
// core.Agent interface; Setup and Shutdown default to no-ops and can be
// overridden individually.
type Base struct {
	name        string // Human-readable name
	description string // Detailed description of agent's purpose
}

// NewBase constructs a Base with generated description (customizable via
// SetDescription).
func NewBase(name string) Base {
	return Base{
		name:        name,
		description: fmt.Sprintf("Agent %s", name),
	}
}

// Name returns the human-readable name for this agent.
func (b *Base) Name() string { return b.name }

// Description returns a detailed description of this agent's purpose.
func (b *Base) Description() string { return b.description }

// SetDescription updates the agent's description.
// This is useful for providing more detailed information about the agent's capabilities.
func (b *Base) SetDescription(desc string) { b.description = desc }

// Setup is a no-op default. Override it to register handlers and perform
// one-time initialization.
func (b *Base) Setup(_ context.Context, _ core.Runtime) error { return nil }

// Shutdown is a no-op default. Override it to release agent-owned resources;
// implementations must tolerate being invoked after a partial or failed Run.
func (b *Base) Shutdown(_ context.Context, _ core.Runtime) error { return nil }
