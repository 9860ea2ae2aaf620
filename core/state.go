package core

// State represents the lifecycle state of an agent runner. Exactly one state
// is owned per runner and transitions are serialized: a second Start or Stop
// caller observes the in-progress transition and either no-ops or receives a
// *LifecycleError.
type State int

const (
	// StateCreated is the initial state before the first Start.
	StateCreated State = iota
	// StateStarting covers communicator start and the Setup hook.
	StateStarting
	// StateRunning means the main task has been scheduled.
	StateRunning
	// StateStopping covers teardown: task cancellation, Shutdown hook and
	// communicator stop.
	StateStopping
	// StateStopped is reached after a completed Stop. Start may be called again.
	StateStopped
	// StateFailed is reached when communicator start or Setup failed. The
	// communicator has already been torn down; Stop is a no-op.
	StateFailed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
