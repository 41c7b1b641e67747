// Package retry bounds retries of provider API calls. Rate limits and
// transient 5xx responses are common on chat-completion endpoints, so the
// clients wrap each request in an executor built from a Policy.
package retry

import "time"

// Policy configures how a failed provider call is retried
type Policy struct {
	InitialInterval    time.Duration
	BackoffCoefficient float64
	MaximumInterval    time.Duration
	MaximumAttempts    int
}

// Option represents a retry policy option
type Option func(*Policy)

// WithInitialInterval sets the delay before the first retry
func WithInitialInterval(interval time.Duration) Option {
	return func(p *Policy) {
		p.InitialInterval = interval
	}
}

// WithMaxAttempts sets the total number of attempts, including the first
func WithMaxAttempts(attempts int) Option {
	return func(p *Policy) {
		p.MaximumAttempts = attempts
	}
}

// NewPolicy creates a retry policy with defaults sized for interactive LLM
// calls: quick first retry, doubling intervals capped at half a minute, and
// three attempts so a planning turn fails fast instead of hanging the
// session.
func NewPolicy(opts ...Option) *Policy {
	policy := &Policy{
		InitialInterval:    500 * time.Millisecond,
		BackoffCoefficient: 2.0,
		MaximumInterval:    30 * time.Second,
		MaximumAttempts:    3,
	}

	for _, opt := range opts {
		opt(policy)
	}

	return policy
}
