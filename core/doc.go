// Package core provides the foundational domain types, interfaces and
// contracts used by AgentLink. It defines the core abstractions for:
//
//   - Agents (the setup / run / shutdown lifecycle hooks a concrete agent supplies)
//   - Runtime (the controller surface hooks call back into)
//   - Communicators (the transport capability contract plugins implement)
//   - AgentConfig / State (the configuration value object and lifecycle states)
//   - The shared error taxonomy (configuration, dependency, lifecycle, transport)
//
// The package intentionally keeps implementation concerns (concrete
// transports, orchestration, configuration loading) out of scope, exposing
// small interfaces to enable custom backends and plugins without pulling in
// optional dependencies. All exported identifiers include concise
// documentation to aid discoverability and external consumption.
package core
