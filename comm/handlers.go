package comm

import (
	"sort"
	"sync"

	"github.com/hupe1980/agentlink/core"
	"github.com/hupe1980/agentlink/logging"
)

// HandlerTable is a goroutine-safe mapping from method name to handler,
// shared by the transport implementations in this module. At most one
// handler per method; registering a method twice replaces the prior handler
// and logs a warning so the replacement is visible (silent overwrite of
// handlers is a latent-bug magnet).
type HandlerTable struct {
	mu       sync.RWMutex
	handlers map[string]core.Handler
	logger   logging.Logger
}

// NewHandlerTable constructs an empty handler table. A nil logger is
// substituted with NoOpLogger.
func NewHandlerTable(logger logging.Logger) *HandlerTable {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &HandlerTable{
		handlers: make(map[string]core.Handler),
		logger:   logger,
	}
}

// Register installs handler for method, replacing (with a warning) any
// previously registered handler.
func (t *HandlerTable) Register(method string, handler core.Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.handlers[method]; ok {
		t.logger.Warn("handler replaced for method", "method", method)
	}
	t.handlers[method] = handler
}

// Get returns the handler for method and whether one is registered.
func (t *HandlerTable) Get(method string) (core.Handler, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.handlers[method]
	return h, ok
}

// Methods returns the sorted list of registered method names.
func (t *HandlerTable) Methods() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	methods := make([]string, 0, len(t.handlers))
	for m := range t.handlers {
		methods = append(methods, m)
	}
	sort.Strings(methods)

	return methods
}

// Len returns the number of registered handlers.
func (t *HandlerTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.handlers)
}
