// Package mcpcomm provides the MCP (Model Context Protocol) communicator
// plugin for AgentLink, speaking MCP over SSE via mark3labs/mcp-go.
//
// Inbound: every registered handler is exposed as an MCP tool on an
// embedded MCP server behind an SSE endpoint. Outbound: requests call the
// target service's tool of the same name through a lazily dialed MCP
// client; results travel as JSON text content.
//
// The package is linked into a build only when the application imports it
// and calls Register:
//
//	registry := comm.NewDefaultRegistry()
//	mcpcomm.Register(registry)
//
// Communicator options:
//
//	listen - inbound listen address (default "127.0.0.1:0"; empty disables
//	         the inbound MCP server for send-only agents)
//
// Service URLs must point at the peer's SSE endpoint, e.g.
// "http://127.0.0.1:8283/sse".
package mcpcomm
