// Package agent provides building blocks for implementing core.Agent.
//
// Base bundles identity and no-op Setup / Shutdown hooks. Embed it in a
// concrete agent implementation and supply a Run method to satisfy the
// core.Agent interface; the compiler enforces Run's presence, there is no
// runtime reflection involved.
//
// FuncAgent adapts plain Go functions into an agent for small agents that do
// not warrant a dedicated type.
package agent
