// Package agentlink provides a high-level façade over the agent runner, the
// communicator registry and the supporting services (configuration, task
// tracking & logging) enabling rapid construction of communicating agents.
// Most applications interact with this package by:
//  1. Implementing core.Agent (or wrapping functions via agent.NewFunc)
//  2. Creating an AgentLink via New() (optionally overriding the registry,
//     communicator or logger)
//  3. Driving the lifecycle via Start/Stop, or letting Run do both around a
//     blocking wait
//
// The façade delegates lifecycle orchestration to runner.Runner while keeping
// setup and usage ergonomics concise. All defaults are safe for local
// development and testing: agents run on the in-process exchange, and logging
// stays disabled unless a log level or an explicit logger is configured.
package agentlink

import (
	"context"

	"github.com/hupe1980/agentlink/comm"
	"github.com/hupe1980/agentlink/core"
	"github.com/hupe1980/agentlink/logging"
	"github.com/hupe1980/agentlink/runner"
)

// Options configures the AgentLink instance.
type Options struct {
	// Config is the agent configuration. An empty Name falls back to the
	// agent's Name(); an empty CommunicatorType falls back to "inproc".
	Config core.AgentConfig

	// Registry resolves the configured communicator type. Defaults to
	// comm.NewDefaultRegistry(); share one registry between agents to let
	// them reach each other over the inproc exchange.
	Registry *comm.Registry

	// Communicator, when set, bypasses registry resolution entirely.
	Communicator core.Communicator

	// MaxConcurrentTasks caps concurrently executing background tasks.
	// Set to 0 for unlimited.
	MaxConcurrentTasks int

	// Logger overrides the default. When nil, a slog JSON logger is built
	// from Config.LogLevel; an empty level keeps logging disabled (NoOp).
	Logger logging.Logger
}

// AgentLink is the high-level façade aggregating the runner and its services.
type AgentLink struct {
	opts   Options
	runner *runner.Runner
}

// New creates a new AgentLink instance for the given agent with optional
// overrides. Any unset service is initialized with a safe default.
func New(a core.Agent, optFns ...func(o *Options)) *AgentLink {
	opts := Options{}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = defaultLogger(opts.Config.LogLevel)
	}

	r := runner.New(a, func(o *runner.Options) {
		o.Config = opts.Config
		o.Registry = opts.Registry
		o.Communicator = opts.Communicator
		o.MaxConcurrentTasks = opts.MaxConcurrentTasks
		o.Logger = opts.Logger
	})

	return &AgentLink{opts: opts, runner: r}
}

// Start brings the agent up: communicator, Setup hook, main task. It returns
// once the main task is scheduled.
func (al *AgentLink) Start(ctx context.Context) error {
	return al.runner.Start(ctx)
}

// Stop tears the agent down: background tasks, main task, Shutdown hook,
// communicator.
func (al *AgentLink) Stop(ctx context.Context) error {
	return al.runner.Stop(ctx)
}

// Run starts the agent and blocks until the main task ends or ctx is
// cancelled, then stops the agent. It returns the main task's error, if any;
// teardown always completes regardless of ctx.
func (al *AgentLink) Run(ctx context.Context) error {
	if err := al.runner.Start(ctx); err != nil {
		return err
	}

	var runErr error
	select {
	case runErr = <-al.runner.Wait():
	case <-ctx.Done():
	}

	if err := al.runner.Stop(context.WithoutCancel(ctx)); err != nil {
		return err
	}

	return runErr
}

// Wait returns a channel delivering the main task's terminal error. See
// runner.Runner.Wait.
func (al *AgentLink) Wait() <-chan error {
	return al.runner.Wait()
}

// State returns the agent's current lifecycle state.
func (al *AgentLink) State() core.State {
	return al.runner.State()
}

// Runner exposes the underlying runner for advanced use (communicator
// swapping, task introspection).
func (al *AgentLink) Runner() *runner.Runner {
	return al.runner
}

// defaultLogger builds the façade's logger from the configured log level.
// An empty level keeps logging disabled.
func defaultLogger(level string) logging.Logger {
	if level == "" {
		return logging.NoOpLogger{}
	}
	return logging.NewSlogLogger(logging.ParseLogLevel(level), "json", false)
}
