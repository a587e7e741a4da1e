package graph

import (
	"math/rand"
	"time"
)

// NodePolicy configures the execution behavior for a specific node: timeout
// and retry. If not specified, the engine-wide defaults from Options apply.
type NodePolicy struct {
	// Timeout is the maximum execution time allowed for this node.
	// If zero, Options.DefaultNodeTimeout is used.
	Timeout time.Duration

	// RetryPolicy specifies automatic retry behavior for transient failures.
	// If nil, no retries are attempted by the engine itself - nodes that
	// call external collaborators are expected to apply RetryPolicy
	// themselves around each collaborator call via ComputeBackoff, since
	// only the node knows which of its own errors are transient.
	RetryPolicy *RetryPolicy
}

// RetryPolicy defines retry configuration for transient failures: how many
// attempts to make and how long to wait between them. Exponential backoff
// with jitter avoids thundering-herd retries against the same collaborator.
type RetryPolicy struct {
	// MaxAttempts is the maximum number of execution attempts (including the
	// initial attempt). Must be >= 1. A value of 1 means no retries.
	MaxAttempts int

	// BaseDelay is the base delay for exponential backoff between retries.
	BaseDelay time.Duration

	// MaxDelay caps the exponential backoff delay. Must be >= BaseDelay.
	MaxDelay time.Duration

	// Retryable decides whether a given error warrants a retry. If nil, no
	// errors are considered retryable.
	Retryable func(error) bool
}

// ComputeBackoff returns the delay to wait before retry attempt number
// attempt (0-based: 0 is the delay before the second overall try).
//
//	delay = min(base * 2^attempt, maxDelay) + jitter(0, base)
func ComputeBackoff(attempt int, base, maxDelay time.Duration, rng *rand.Rand) time.Duration {
	delay := base * (1 << attempt)
	if delay > maxDelay {
		delay = maxDelay
	}

	var jitter time.Duration
	if base > 0 {
		if rng != nil {
			jitter = time.Duration(rng.Int63n(int64(base)))
		} else {
			jitter = time.Duration(rand.Int63n(int64(base))) // #nosec G404 -- retry jitter, not security sensitive
		}
	}
	return delay + jitter
}

// Validate reports whether the RetryPolicy is internally consistent.
func (rp *RetryPolicy) Validate() error {
	if rp.MaxAttempts < 1 {
		return ErrInvalidRetryPolicy
	}
	if rp.MaxDelay > 0 && rp.BaseDelay > 0 && rp.MaxDelay < rp.BaseDelay {
		return ErrInvalidRetryPolicy
	}
	return nil
}
