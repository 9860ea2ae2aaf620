package comm

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/agentlink/core"
	"github.com/hupe1980/agentlink/logging"
)

// Built-in and well-known communicator type identifiers.
const (
	// TypeInProc is the registry-scoped in-process exchange transport.
	TypeInProc = "inproc"
	// TypeMock is the scriptable loopback transport for tests and demos.
	TypeMock = "mock"
	// TypeHTTP is the HTTP transport provided by comm/httpcomm.
	TypeHTTP = "http"
	// TypeMCP is the MCP-over-SSE transport provided by comm/mcpcomm.
	TypeMCP = "mcp"
)

// Factory constructs a new Communicator from a validated agent
// configuration. Factories receive the whole config because transports need
// the service URL map for target resolution in addition to their own
// options. Any heavy initialization belongs here, not in the registry.
type Factory func(cfg core.AgentConfig) (core.Communicator, error)

// Options holds configuration overrides passed to NewRegistry().
type Options struct {
	// Logger receives registration and discovery diagnostics. Defaults to
	// NoOpLogger.
	Logger logging.Logger
}

// Registry is a thread-safe registry mapping communicator type identifiers
// to factories. A Registry instance has an explicit lifecycle (construct,
// discover, resolve) and is passed by reference to the agent runner rather
// than accessed as ambient global state, keeping it testable and avoiding
// cross-test leakage.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	hints     map[string]string
	loaded    map[string]bool
	logger    logging.Logger
}

// NewRegistry creates an empty Registry. Most callers want
// NewDefaultRegistry, which also installs the built-in transports and the
// hint table for the optional plugin packages.
func NewRegistry(optFns ...func(o *Options)) *Registry {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Registry{
		factories: make(map[string]Factory),
		hints:     make(map[string]string),
		loaded:    make(map[string]bool),
		logger:    opts.Logger,
	}
}

// NewDefaultRegistry creates a Registry with the built-in transports
// registered ("inproc" backed by a registry-scoped Exchange, and "mock") and
// dependency hints installed for the optional plugin packages. Agents
// sharing the returned registry can reach each other over the inproc
// exchange.
func NewDefaultRegistry(optFns ...func(o *Options)) *Registry {
	r := NewRegistry(optFns...)

	exchange := NewExchange()
	r.Register(TypeInProc, InProcFactory(exchange))
	r.Register(TypeMock, MockFactory())

	r.RegisterHint(TypeHTTP, `import "github.com/hupe1980/agentlink/comm/httpcomm" and call httpcomm.Register`)
	r.RegisterHint(TypeMCP, `import "github.com/hupe1980/agentlink/comm/mcpcomm" and call mcpcomm.Register`)
	r.RegisterHint("grpc", "no in-tree grpc communicator; register a plugin implementing core.Communicator")
	r.RegisterHint("mqtt", "no in-tree mqtt communicator; register a plugin implementing core.Communicator")

	return r
}

// Register inserts or overwrites the factory for typeID. Overwriting is
// intentional (last-registered-wins) so that re-running discovery stays
// idempotent and applications can shadow a built-in; replacements are logged
// as a warning to keep the shadowing visible.
func (r *Registry) Register(typeID string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.factories[typeID]; ok {
		r.logger.Warn("communicator factory replaced", "type", typeID)
	}
	r.factories[typeID] = factory
}

// RegisterHint records a remediation hint for a communicator type that is
// known to exist as an optional plugin but is not registered in this build.
// Resolving such a type yields *core.DependencyError carrying the hint.
func (r *Registry) RegisterHint(typeID, hint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hints[typeID] = hint
}

// Resolve looks up the factory for cfg.CommunicatorType and invokes it.
//
// Error kinds:
//   - unknown type: *core.ConfigurationError listing known type ids
//   - known optional plugin not linked in: *core.DependencyError with hint
//   - factory failure: passed through (a factory may itself return a
//     *core.DependencyError when a lazily loaded component is absent;
//     anything else is wrapped as a construction failure)
func (r *Registry) Resolve(cfg core.AgentConfig) (core.Communicator, error) {
	typeID := cfg.CommunicatorType

	r.mu.RLock()
	factory, ok := r.factories[typeID]
	hint, hinted := r.hints[typeID]
	r.mu.RUnlock()

	if !ok {
		if hinted {
			return nil, &core.DependencyError{CommunicatorType: typeID, Hint: hint}
		}
		return nil, &core.ConfigurationError{
			Reason:     fmt.Sprintf("unknown communicator type %q", typeID),
			KnownTypes: r.Types(),
		}
	}

	c, err := factory(cfg)
	if err != nil {
		var depErr *core.DependencyError
		if errors.As(err, &depErr) {
			return nil, err
		}
		return nil, fmt.Errorf("constructing communicator %q: %w", typeID, err)
	}

	return c, nil
}

// Types returns the sorted list of registered type identifiers.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for typeID := range r.factories {
		types = append(types, typeID)
	}
	sort.Strings(types)

	return types
}

// Len returns the number of registered factories.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.factories)
}

// Reset removes all registered factories and forgets discovered plugin
// paths. Hints survive. This is a testing hook; production code never
// removes entries at runtime.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories = make(map[string]Factory)
	r.loaded = make(map[string]bool)
}
