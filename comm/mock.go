package comm

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/agentlink/core"
	"github.com/hupe1980/agentlink/logging"
)

// MockCall records one outbound operation performed on a Mock communicator.
type MockCall struct {
	// Kind is "request" or "notification".
	Kind string
	// Target, Method and Params mirror the call arguments.
	Target string
	Method string
	Params map[string]any
}

// Mock is a scriptable communicator for tests, demos and dry runs,
// registered as the built-in type "mock". By default SendRequest loops back
// to the mock's own handler table, so an agent exercising its handlers
// needs no peer. Behavior can be overridden via the exported func fields;
// every outbound call is recorded for later assertions.
type Mock struct {
	mu       sync.Mutex
	handlers *HandlerTable
	calls    []MockCall
	started  bool

	// StartErr and StopErr, when set, are returned by Start and Stop.
	StartErr error
	StopErr  error
	// RequestFunc replaces the default loopback behavior of SendRequest.
	RequestFunc func(ctx context.Context, target, method string, params map[string]any, timeout time.Duration) (map[string]any, error)
}

// NewMock constructs an empty mock communicator.
func NewMock() *Mock {
	return &Mock{handlers: NewHandlerTable(logging.NoOpLogger{})}
}

// MockFactory returns a Factory producing fresh Mock instances.
func MockFactory() Factory {
	return func(_ core.AgentConfig) (core.Communicator, error) {
		return NewMock(), nil
	}
}

// Start implements core.Communicator.
func (m *Mock) Start(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StartErr != nil {
		return m.StartErr
	}
	m.started = true
	return nil
}

// Stop implements core.Communicator. Safe to call after a failed Start.
func (m *Mock) Stop(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = false
	return m.StopErr
}

// Started reports whether the mock is between Start and Stop.
func (m *Mock) Started() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// SendRequest records the call and, unless RequestFunc overrides it,
// dispatches to the mock's own handler for method (loopback). An
// unregistered method yields *core.ServiceNotFoundError.
func (m *Mock) SendRequest(ctx context.Context, target, method string, params map[string]any, timeout time.Duration) (map[string]any, error) {
	m.record(MockCall{Kind: "request", Target: target, Method: method, Params: params})

	m.mu.Lock()
	fn := m.RequestFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, target, method, params, timeout)
	}

	handler, ok := m.handlers.Get(method)
	if !ok {
		return nil, &core.ServiceNotFoundError{Target: target}
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	return handler(ctx, params)
}

// SendNotification records the call and drops it.
func (m *Mock) SendNotification(_ context.Context, target, method string, params map[string]any) error {
	m.record(MockCall{Kind: "notification", Target: target, Method: method, Params: params})
	return nil
}

// RegisterHandler implements core.Communicator.
func (m *Mock) RegisterHandler(method string, handler core.Handler) {
	m.handlers.Register(method, handler)
}

// Handler returns the registered handler for method, or nil. Useful for
// invoking a handler directly in tests.
func (m *Mock) Handler(method string) core.Handler {
	h, _ := m.handlers.Get(method)
	return h
}

// Calls returns a copy of all recorded outbound calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *Mock) record(call MockCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}
