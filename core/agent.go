package core

import "context"

// Agent defines the lifecycle hooks every agent in AgentLink must implement.
//
// Agents are the primary processing units of the framework. A concrete agent
// supplies three hooks which the runner drives in order:
//
//   - Setup runs once after the communicator has started. It is expected to
//     register handlers and perform one-time initialization. A Setup error is
//     fatal to Start (the runner still tears the communicator down).
//   - Run implements the agent's steady-state behavior. It is scheduled as
//     the main task once Setup completes and is expected to run until its
//     context is cancelled, or to return on its own; a returning Run is a
//     normal termination, not an error, and the runner does not restart it.
//   - Shutdown releases agent-owned resources. It is invoked unconditionally
//     during teardown, even after a partial or failed Run, and must tolerate
//     that.
//
// Implementations must respect context cancellation for graceful shutdown.
// Embed agent.Base to inherit no-op Setup and Shutdown and only write Run.
type Agent interface {
	// Name returns the agent's external identifier.
	Name() string

	// Setup performs one-time initialization (typically handler registration).
	Setup(ctx context.Context, rt Runtime) error

	// Run is the agent's main task. Cancelled cooperatively via ctx.
	Run(ctx context.Context, rt Runtime) error

	// Shutdown releases resources. Errors are logged by the runner, never
	// propagated; teardown always proceeds to the communicator.
	Shutdown(ctx context.Context, rt Runtime) error
}

// Runtime is the controller surface exposed to lifecycle hooks. It lets hook
// code reach the communicator, register handlers and fan out tracked
// background work without holding a reference to the runner's internals.
type Runtime interface {
	// Name returns the owning agent's name.
	Name() string

	// Config returns the immutable configuration the agent was built with.
	Config() AgentConfig

	// Communicator returns the transport instance owned by this agent.
	Communicator() Communicator

	// RegisterHandler installs an inbound handler on the communicator.
	RegisterHandler(method string, handler Handler)

	// Spawn schedules fn as a tracked background task. All spawned tasks are
	// cancelled and awaited during Stop. Returns an error when the agent is
	// not accepting new work (not started, or already stopping).
	Spawn(name string, fn func(ctx context.Context) error) error
}
