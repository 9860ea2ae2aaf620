// Package util contains small internal helpers shared across AgentLink
// packages. It lives in internal to avoid committing to public API stability
// prematurely.
package util

import "github.com/google/uuid"

// NewID returns a new globally unique identifier (UUID v4 string), used for
// request correlation ids and background task handles.
func NewID() string { return uuid.NewString() }
