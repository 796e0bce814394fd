// Package clients provides the instrumented HTTP client used to reach the
// remote quote server. Errors here are transport-level; the acl package
// translates them into domain errors.
package clients

import "errors"

var (
	// ErrCircuitOpen is returned without sending when the circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last error once every attempt failed.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)
