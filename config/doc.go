// Package config loads agent configuration from files and the environment
// into a validated core.AgentConfig.
//
// Sources are layered, later sources overriding earlier ones:
//
//  1. Built-in defaults (communicator "inproc", log level "info")
//  2. An optional config file (YAML, JSON or TOML, resolved by viper)
//  3. Environment variables with the AGENTLINK_ prefix, optionally seeded
//     from .env files via godotenv
//
// Example:
//
//	cfg, err := config.Load(func(o *config.Options) {
//	    o.Path = "agent.yaml"
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
