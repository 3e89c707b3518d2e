package domain

import "time"

// RetryPolicy bounds how often an external invocation is attempted.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first one.
	// Values below 1 are treated as 1.
	MaxAttempts int
	// Backoff is the constant pause between attempts.
	Backoff time.Duration
}

// Attempts returns the effective number of attempts.
func (p RetryPolicy) Attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// SingleAttempt is a policy that never retries.
var SingleAttempt = RetryPolicy{MaxAttempts: 1}
