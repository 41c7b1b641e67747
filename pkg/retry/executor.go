package retry

import (
	"context"

	"github.com/cenkalti/backoff/v4"
)

// Executor runs operations under a retry policy with exponential backoff.
type Executor struct {
	policy *Policy
}

// NewExecutor creates an executor for the given policy
func NewExecutor(policy *Policy) *Executor {
	return &Executor{policy: policy}
}

// Execute runs the operation, retrying transient failures according to the
// policy. The context cancels any remaining attempts.
func (e *Executor) Execute(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.policy.InitialInterval
	b.Multiplier = e.policy.BackoffCoefficient
	b.MaxInterval = e.policy.MaximumInterval

	var wrapped backoff.BackOff = b
	if e.policy.MaximumAttempts > 0 {
		wrapped = backoff.WithMaxRetries(b, uint64(e.policy.MaximumAttempts-1))
	}

	return backoff.Retry(operation, backoff.WithContext(wrapped, ctx))
}
