package core

import (
	"context"
	"time"
)

// Handler processes a single inbound request or notification for one method.
// It receives the decoded parameter map and returns a result map (ignored for
// notifications) or an error. Handlers must respect context cancellation;
// long-running handlers are invoked concurrently and may be cancelled during
// agent teardown.
type Handler func(ctx context.Context, params map[string]any) (map[string]any, error)

// Communicator is the capability contract every transport plugin must
// satisfy. It is the entire interface the lifecycle controller relies on;
// wire-level details of concrete implementations (HTTP, MCP, in-process,
// mock) are opaque to the rest of AgentLink.
//
// Ownership & concurrency:
//   - A Communicator instance is exclusively owned by one agent runner for
//     its lifetime. The runner may swap it only while not running.
//   - SendRequest and SendNotification MUST be safe for concurrent use by
//     multiple background tasks of the same agent. Any internal
//     serialization (e.g. multiplexing one connection via correlation ids)
//     is the implementation's responsibility.
//
// Lifecycle:
//   - Start establishes whatever is needed to send and receive (listening
//     socket, subprocess, connection pool). The runner treats it as atomic
//     success/failure.
//   - Stop releases everything Start acquired and must be safe to call even
//     if Start partially failed. The runner guarantees exactly one Stop per
//     successful Start.
type Communicator interface {
	// Start establishes transport resources. Blocking until the communicator
	// is ready to send and receive, or the context is cancelled.
	Start(ctx context.Context) error

	// Stop releases all resources acquired by Start. Implementations should
	// make Stop tolerant of a partially failed Start.
	Stop(ctx context.Context) error

	// SendRequest performs a request/response exchange with the named target
	// service. A zero timeout means no per-request deadline beyond the
	// context. On expiry the error is a *TimeoutError; an unknown or
	// unreachable target yields a *ServiceNotFoundError.
	SendRequest(ctx context.Context, target, method string, params map[string]any, timeout time.Duration) (map[string]any, error)

	// SendNotification sends a fire-and-forget message. Only local enqueueing
	// is guaranteed by the time it returns; delivery is best effort.
	SendNotification(ctx context.Context, target, method string, params map[string]any) error

	// RegisterHandler installs a handler invoked for inbound requests or
	// notifications addressed to method. At most one handler per method;
	// registering twice replaces the prior handler (implementations log a
	// warning, replacement is intentional, not accidental shadowing).
	RegisterHandler(method string, handler Handler)
}
