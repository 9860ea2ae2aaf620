package core

// AgentConfig is the validated configuration value an agent runner is
// constructed with. It is owned exclusively by the runner and treated as
// immutable after construction; the runner copies the maps on access so hook
// code cannot mutate shared state.
//
// AgentConfig carries no parsing logic. Raw sources (YAML files, env vars)
// are the concern of the config package or any external loader.
type AgentConfig struct {
	// Name is the agent's external identifier. Required.
	Name string `json:"name" mapstructure:"name"`

	// CommunicatorType selects the transport implementation by registry type
	// id (e.g. "inproc", "http", "mcp", "mock"). Required.
	CommunicatorType string `json:"communicator_type" mapstructure:"communicator_type"`

	// CommunicatorOptions carries transport-specific options, passed opaquely
	// to the communicator factory (e.g. "listen" address for http).
	CommunicatorOptions map[string]any `json:"communicator_options" mapstructure:"communicator_options"`

	// ServiceURLs maps logical target service names to transport addresses.
	// Consulted by communicators to resolve SendRequest targets.
	ServiceURLs map[string]string `json:"service_urls" mapstructure:"service_urls"`

	// LogLevel is the agent's log verbosity ("debug", "info", "warn",
	// "error"). Interpreted by the logging package; empty means "info".
	LogLevel string `json:"log_level" mapstructure:"log_level"`
}

// Validate checks required fields, returning a *ConfigurationError on the
// first violation.
func (c AgentConfig) Validate() error {
	if c.Name == "" {
		return &ConfigurationError{Reason: "agent name must not be empty"}
	}
	if c.CommunicatorType == "" {
		return &ConfigurationError{Reason: "communicator type must not be empty"}
	}
	return nil
}

// CloneOptions returns a shallow copy of the communicator options map,
// never nil.
func (c AgentConfig) CloneOptions() map[string]any {
	out := make(map[string]any, len(c.CommunicatorOptions))
	for k, v := range c.CommunicatorOptions {
		out[k] = v
	}
	return out
}

// CloneServiceURLs returns a copy of the service URL map, never nil.
func (c AgentConfig) CloneServiceURLs() map[string]string {
	out := make(map[string]string, len(c.ServiceURLs))
	for k, v := range c.ServiceURLs {
		out[k] = v
	}
	return out
}
