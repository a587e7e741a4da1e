// Package graph provides the core graph execution engine used by the
// orchestrator: a minimal, generic node/edge runtime that the domain layer
// instantiates with its own state record.
package graph

import "errors"

// ErrMaxHopsExceeded indicates that graph execution reached the configured
// maximum hop count without reaching a terminal node. This guards against
// accidental routing cycles.
var ErrMaxHopsExceeded = errors.New("graph: execution exceeded maximum hop limit")

// ErrInvalidRetryPolicy indicates a RetryPolicy failed validation (see
// RetryPolicy.Validate).
var ErrInvalidRetryPolicy = errors.New("graph: invalid retry policy")
