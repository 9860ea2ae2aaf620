package comm

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/agentlink/core"
	"github.com/hupe1980/agentlink/logging"
)

// Exchange routes in-process requests between InProc communicators by
// service name. It is safe for concurrent access and best suited for tests,
// examples and co-located agents that should talk without a network. An
// Exchange is typically scoped to one Registry (see NewDefaultRegistry).
type Exchange struct {
	mu       sync.RWMutex
	services map[string]*InProc
}

// NewExchange constructs an empty in-process exchange.
func NewExchange() *Exchange {
	return &Exchange{services: make(map[string]*InProc)}
}

// attach registers a communicator under its service name. The name must be
// free; two live agents with the same service name is a configuration error.
func (e *Exchange) attach(c *InProc) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.services[c.service]; ok {
		return &core.ConfigurationError{Reason: fmt.Sprintf("service %q is already attached to the exchange", c.service)}
	}
	e.services[c.service] = c

	return nil
}

// detach removes a service. Detaching an unknown name is a no-op so Stop
// stays safe after a partially failed Start.
func (e *Exchange) detach(service string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.services, service)
}

func (e *Exchange) lookup(service string) (*InProc, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.services[service]
	return c, ok
}

// Names returns the sorted names of currently attached services.
func (e *Exchange) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.services))
	for name := range e.services {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// InProcOptions holds configuration overrides passed to NewInProc().
type InProcOptions struct {
	// Logger receives handler replacement warnings and notification
	// dispatch failures. Defaults to NoOpLogger.
	Logger logging.Logger
}

// InProc is the built-in in-process communicator. Requests addressed to a
// target service are dispatched directly to the handler registered by the
// peer attached to the same Exchange, with timeout and
// service-resolution semantics matching the Communicator contract.
type InProc struct {
	service  string
	exchange *Exchange
	handlers *HandlerTable
	logger   logging.Logger

	mu      sync.Mutex
	started bool
}

// NewInProc constructs an in-process communicator for the given service name
// on the given exchange. The communicator is inert until Start attaches it.
func NewInProc(service string, exchange *Exchange, optFns ...func(o *InProcOptions)) *InProc {
	opts := InProcOptions{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &InProc{
		service:  service,
		exchange: exchange,
		handlers: NewHandlerTable(opts.Logger),
		logger:   opts.Logger,
	}
}

// InProcFactory returns a Factory producing InProc communicators attached to
// exchange. The service name defaults to the agent name and can be
// overridden with the "service" communicator option.
func InProcFactory(exchange *Exchange) Factory {
	return func(cfg core.AgentConfig) (core.Communicator, error) {
		service := cfg.Name
		if s, ok := cfg.CommunicatorOptions["service"].(string); ok && s != "" {
			service = s
		}
		return NewInProc(service, exchange), nil
	}
}

// Service returns the service name this communicator answers for.
func (c *InProc) Service() string { return c.service }

// Start attaches the communicator to its exchange, making its handlers
// reachable by peers.
func (c *InProc) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return fmt.Errorf("inproc communicator %q is already started", c.service)
	}
	if err := c.exchange.attach(c); err != nil {
		return err
	}
	c.started = true

	return nil
}

// Stop detaches the communicator from the exchange. Safe to call after a
// failed or partial Start.
func (c *InProc) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		c.exchange.detach(c.service)
		c.started = false
	}

	return nil
}

// SendRequest dispatches a request to the target service's handler and waits
// for its result, the timeout or context cancellation, whichever comes first.
func (c *InProc) SendRequest(ctx context.Context, target, method string, params map[string]any, timeout time.Duration) (map[string]any, error) {
	peer, ok := c.exchange.lookup(target)
	if !ok {
		return nil, &core.ServiceNotFoundError{Target: target, Known: c.exchange.Names()}
	}

	handler, ok := peer.handlers.Get(method)
	if !ok {
		return nil, fmt.Errorf("service %q has no handler for method %q", target, method)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type outcome struct {
		result map[string]any
		err    error
	}
	resultCh := make(chan outcome, 1)

	go func() {
		result, err := handler(ctx, params)
		resultCh <- outcome{result: result, err: err}
	}()

	select {
	case out := <-resultCh:
		return out.result, out.err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, &core.TimeoutError{Target: target, Method: method, Timeout: timeout}
		}
		return nil, ctx.Err()
	}
}

// SendNotification dispatches a fire-and-forget message to the target
// service. Only local enqueueing is guaranteed; handler failures are logged,
// not returned.
func (c *InProc) SendNotification(ctx context.Context, target, method string, params map[string]any) error {
	peer, ok := c.exchange.lookup(target)
	if !ok {
		return &core.ServiceNotFoundError{Target: target, Known: c.exchange.Names()}
	}

	handler, ok := peer.handlers.Get(method)
	if !ok {
		return fmt.Errorf("service %q has no handler for method %q", target, method)
	}

	go func() {
		if _, err := handler(context.WithoutCancel(ctx), params); err != nil {
			c.logger.Warn("notification handler failed", "target", target, "method", method, "error", err)
		}
	}()

	return nil
}

// RegisterHandler installs a handler for inbound requests addressed to this
// service. Registering a method twice replaces the prior handler with a
// warning.
func (c *InProc) RegisterHandler(method string, handler core.Handler) {
	c.handlers.Register(method, handler)
}
