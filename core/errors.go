package core

import (
	"fmt"
	"strings"
	"time"
)

// The error taxonomy distinguishes failure kinds that require different
// remediation:
//
//   - *ConfigurationError: fix the configuration (unknown communicator type,
//     malformed options). Surfaced synchronously, never retried.
//   - *DependencyError: install / import a missing optional component. A
//     communicator type the registry knows about but whose plugin package was
//     never linked in. Carries the remediation hint.
//   - *LifecycleError: a state-transition precondition was violated, or a
//     communicator-start / Setup failure wrapped for propagation.
//   - *TimeoutError, *ServiceNotFoundError: transport-level failures raised
//     by communicator implementations and passed through unchanged.
//
// All types are usable with errors.As so callers and tests can branch on
// kind.

// ConfigurationError reports invalid or unresolvable configuration.
type ConfigurationError struct {
	// Reason describes what is wrong in user terms.
	Reason string
	// KnownTypes lists the communicator type ids the registry currently
	// knows, populated for unknown-type resolution failures to aid diagnosis.
	KnownTypes []string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if len(e.KnownTypes) > 0 {
		return fmt.Sprintf("configuration error: %s (known types: %s)", e.Reason, strings.Join(e.KnownTypes, ", "))
	}
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// DependencyError reports a resolvable communicator type whose implementation
// requires an optional component that is not present in this build.
type DependencyError struct {
	// CommunicatorType is the requested type id.
	CommunicatorType string
	// Hint names the remediation, typically the plugin package to import and
	// register (e.g. comm/httpcomm).
	Hint string
	// Err optionally carries an underlying load failure.
	Err error
}

// Error implements the error interface.
func (e *DependencyError) Error() string {
	msg := fmt.Sprintf("communicator type %q requires an optional dependency that is not available", e.CommunicatorType)
	if e.Hint != "" {
		msg += ": " + e.Hint
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying load failure, if any.
func (e *DependencyError) Unwrap() error { return e.Err }

// LifecycleError reports a violated lifecycle precondition or wraps a failure
// raised while driving the lifecycle forward (communicator start, Setup hook).
type LifecycleError struct {
	// Agent is the owning agent's name.
	Agent string
	// Phase identifies where the failure occurred ("start", "stop",
	// "communicator-start", "setup").
	Phase string
	// State is the lifecycle state observed when the error was raised.
	State State
	// Err is the underlying cause, nil for pure precondition violations.
	Err error
}

// Error implements the error interface.
func (e *LifecycleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("agent %q lifecycle error in phase %s (state %s): %v", e.Agent, e.Phase, e.State, e.Err)
	}
	return fmt.Sprintf("agent %q lifecycle error in phase %s (state %s)", e.Agent, e.Phase, e.State)
}

// Unwrap returns the underlying cause, if any.
func (e *LifecycleError) Unwrap() error { return e.Err }

// TimeoutError reports that a request/response exchange did not complete
// within the configured timeout window.
type TimeoutError struct {
	// Target is the service the request was addressed to.
	Target string
	// Method is the requested method name.
	Method string
	// Timeout is the deadline that expired.
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request %s to service %q timed out after %s", e.Method, e.Target, e.Timeout)
}

// ServiceNotFoundError reports a request addressed to an unknown or
// unreachable target service.
type ServiceNotFoundError struct {
	// Target is the service name that could not be resolved or reached.
	Target string
	// Known lists resolvable service names, when the transport can enumerate
	// them (e.g. the in-process exchange).
	Known []string
}

// Error implements the error interface.
func (e *ServiceNotFoundError) Error() string {
	if len(e.Known) > 0 {
		return fmt.Sprintf("service %q not found (known services: %s)", e.Target, strings.Join(e.Known, ", "))
	}
	return fmt.Sprintf("service %q not found", e.Target)
}
