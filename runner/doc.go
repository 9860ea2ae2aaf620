// Package runner implements the agent lifecycle controller for AgentLink.
//
// The Runner drives a single agent through its cooperative lifecycle,
// providing uniform semantics regardless of which communicator backend is
// plugged in:
//
//	Created -> Starting -> Running -> Stopping -> Stopped
//	                  \-> Failed (communicator start or Setup failed)
//
// # Responsibilities (abridged)
//   - Resolving the communicator from the registry and starting it
//   - Driving the Setup / Run / Shutdown hooks in order
//   - Owning the main task and the background task set
//   - Deterministic, leak-free teardown: background tasks and the main task
//     are cancelled and awaited (cancellation suppressed), the Shutdown hook
//     and the communicator stop always run, even when user hook code fails
//
// Run failures never propagate synchronously: the owner observes them via
// Wait() and remains responsible for calling Stop. See runner.go for the
// operational implementation details.
package runner
