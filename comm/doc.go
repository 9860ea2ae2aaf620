// Package comm implements the communicator registry and the built-in
// in-process transports for AgentLink.
//
// The Registry maps communicator type identifiers (e.g. "inproc", "http",
// "mcp") to factory functions producing core.Communicator instances.
// Resolution is deliberately lazy: the factory, not the registry, performs
// any heavy construction, so an agent never pays for transport backends it
// does not use. Transport plugins with heavy dependencies live in
// subpackages (comm/httpcomm, comm/mcpcomm) and are linked in only when the
// application imports and registers them.
//
// Two failure kinds are kept apart because they require different
// remediation:
//
//   - an unknown type id yields *core.ConfigurationError enumerating the
//     currently known types (fix the configuration);
//   - a type the registry recognizes as an optional plugin that was never
//     registered yields *core.DependencyError carrying the import hint
//     (link the plugin in).
//
// Plugin discovery (Registry.Discover) supplements the built-ins from two
// sources: shared objects in configured extension directories and a
// caller-supplied entry point enumerator. Discovery is idempotent; a later
// registration for the same type id overwrites an earlier one
// (last-registered-wins).
package comm
