// Package logging provides a minimal logging interface and adapters for AgentLink.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the runner, task manager and communicators use for
// observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - AgentLogger with contextual helpers (agent name, component) and
//     lifecycle / transport event helpers
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	r := runner.New(myAgent, func(o *runner.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor
// lock-in while supporting structured logging where available.
package logging
