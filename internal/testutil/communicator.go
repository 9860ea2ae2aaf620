package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/agentlink/core"
)

// FakeCommunicator is a scriptable core.Communicator for tests. Behavior is
// customized via the exported func fields; unset fields succeed with zero
// values. All counters and the handler table are goroutine-safe.
type FakeCommunicator struct {
	mu sync.Mutex

	StartFunc        func(ctx context.Context) error
	StopFunc         func(ctx context.Context) error
	RequestFunc      func(ctx context.Context, target, method string, params map[string]any, timeout time.Duration) (map[string]any, error)
	NotificationFunc func(ctx context.Context, target, method string, params map[string]any) error

	startCalls int
	stopCalls  int
	handlers   map[string]core.Handler
}

// NewFakeCommunicator returns an empty fake with all operations succeeding.
func NewFakeCommunicator() *FakeCommunicator {
	return &FakeCommunicator{handlers: make(map[string]core.Handler)}
}

// Start implements core.Communicator.
func (f *FakeCommunicator) Start(ctx context.Context) error {
	f.mu.Lock()
	f.startCalls++
	fn := f.StartFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	return nil
}

// Stop implements core.Communicator.
func (f *FakeCommunicator) Stop(ctx context.Context) error {
	f.mu.Lock()
	f.stopCalls++
	fn := f.StopFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	return nil
}

// SendRequest implements core.Communicator.
func (f *FakeCommunicator) SendRequest(ctx context.Context, target, method string, params map[string]any, timeout time.Duration) (map[string]any, error) {
	f.mu.Lock()
	fn := f.RequestFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, target, method, params, timeout)
	}
	return map[string]any{}, nil
}

// SendNotification implements core.Communicator.
func (f *FakeCommunicator) SendNotification(ctx context.Context, target, method string, params map[string]any) error {
	f.mu.Lock()
	fn := f.NotificationFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, target, method, params)
	}
	return nil
}

// RegisterHandler implements core.Communicator.
func (f *FakeCommunicator) RegisterHandler(method string, handler core.Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method] = handler
}

// Handler returns the registered handler for method, or nil.
func (f *FakeCommunicator) Handler(method string) core.Handler {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handlers[method]
}

// StartCalls returns how many times Start was invoked.
func (f *FakeCommunicator) StartCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.startCalls
}

// StopCalls returns how many times Stop was invoked.
func (f *FakeCommunicator) StopCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopCalls
}
