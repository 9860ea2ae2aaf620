// Package httpcomm provides the HTTP communicator plugin for AgentLink.
//
// Requests and notifications travel as small JSON envelopes over HTTP POST:
// inbound traffic is served by a gin engine on the configured listen
// address, outbound traffic resolves the target service through the agent's
// service URL map. The package is linked into a build only when the
// application imports it and calls Register:
//
//	registry := comm.NewDefaultRegistry()
//	httpcomm.Register(registry)
//
// Communicator options:
//
//	listen - inbound listen address (default "127.0.0.1:0"; empty disables
//	         the inbound listener for send-only agents)
package httpcomm
