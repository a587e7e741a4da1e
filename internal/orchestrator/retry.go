package orchestrator

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/KE-WhyNot/BE-LLM/graph"
)

// collaboratorRetryPolicy is the "up to 2 attempts, exponential backoff,
// only for transient_external" policy from the error handling design. It is
// applied by each agent around its own collaborator calls, never by the
// graph engine itself.
var collaboratorRetryPolicy = graph.RetryPolicy{
	MaxAttempts: 2,
	BaseDelay:   50 * time.Millisecond,
	MaxDelay:    500 * time.Millisecond,
	Retryable:   isTransient,
}

// collaboratorError marks an error returned by a capability implementation
// as transient (worth retrying) or not. Fakes/adapters wrap their failures
// in this type to opt into retry classification; a plain error is treated
// as permanent.
type collaboratorError struct {
	kind ErrorKind
	err  error
}

func (c *collaboratorError) Error() string { return c.err.Error() }
func (c *collaboratorError) Unwrap() error { return c.err }

// NewTransientError wraps err so withRetry and classifyCollaboratorError
// treat it as transient_external.
func NewTransientError(err error) error {
	return &collaboratorError{kind: ErrTransientExternal, err: err}
}

// NewNotFoundError wraps err so classifyCollaboratorError reports
// symbol_not_found instead of a generic permanent failure.
func NewNotFoundError(err error) error {
	return &collaboratorError{kind: ErrSymbolNotFound, err: err}
}

func isTransient(err error) bool {
	var ce *collaboratorError
	return errors.As(err, &ce) && ce.kind == ErrTransientExternal
}

// withRetry runs fn, retrying per collaboratorRetryPolicy when the error is
// transient. Returns the last error if every attempt is exhausted. metrics
// may be nil; when present, every retried attempt is recorded against
// retries_total under the given agent/node label.
func withRetry[T any](ctx context.Context, agent string, metrics *graph.PrometheusMetrics, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	rng := rand.New(rand.NewSource(time.Now().UnixNano())) // #nosec G404 -- retry jitter only

	for attempt := 0; attempt < collaboratorRetryPolicy.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := graph.ComputeBackoff(attempt-1, collaboratorRetryPolicy.BaseDelay, collaboratorRetryPolicy.MaxDelay, rng)
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !collaboratorRetryPolicy.Retryable(err) {
			return zero, err
		}
		if metrics != nil {
			metrics.IncrementRetries(agent, retryReason(err))
		}
	}
	return zero, lastErr
}

// retryReason extracts the collaboratorError kind driving a retry, so
// retries_total can be broken down by failure reason.
func retryReason(err error) string {
	var ce *collaboratorError
	if errors.As(err, &ce) {
		return string(ce.kind)
	}
	return string(ErrTransientExternal)
}

// classifyCollaboratorError converts a collaborator failure into a
// StateError with the right kind, preferring a wrapped collaboratorError's
// kind when present.
func classifyCollaboratorError(node string, err error) *StateError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &StateError{Kind: ErrTimeout, Node: node, Message: err.Error(), Recoverable: true}
	}
	if errors.Is(err, context.Canceled) {
		return &StateError{Kind: ErrCancelled, Node: node, Message: err.Error(), Recoverable: false}
	}
	var ce *collaboratorError
	if errors.As(err, &ce) {
		return &StateError{Kind: ce.kind, Node: node, Message: ce.err.Error(), Recoverable: true}
	}
	return &StateError{Kind: ErrPermanentExternal, Node: node, Message: err.Error(), Recoverable: true}
}
