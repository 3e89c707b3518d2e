// Package retry runs external invocations under a bounded, constant-backoff retry policy.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.trai.ch/launchpad/internal/core/domain"
)

// Operation is one attempt. attempt starts at 1.
type Operation func(ctx context.Context, attempt int) error

// Notify is called after a failed attempt that is going to be retried.
type Notify func(attempt int, err error, wait time.Duration)

type options struct {
	timer  backoff.Timer
	notify Notify
}

// Option configures Do.
type Option func(*options)

// WithTimer replaces the timer used to wait between attempts.
func WithTimer(t backoff.Timer) Option {
	return func(o *options) {
		o.timer = t
	}
}

// WithNotify registers a callback for failed attempts that will be retried.
func WithNotify(n Notify) Option {
	return func(o *options) {
		o.notify = n
	}
}

// Permanent marks err as not worth retrying. Do returns the wrapped error unchanged.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs op until it succeeds, returns a permanent error, or policy's attempts are used up.
// The last attempt's error is returned. Cancelling ctx stops further attempts and the
// pause between them.
func Do(ctx context.Context, policy domain.RetryPolicy, op Operation, opts ...Option) error {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	attempt := 0
	operation := func() error {
		attempt++
		err := op(ctx, attempt)
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	var notify backoff.Notify
	if o.notify != nil {
		notify = func(err error, wait time.Duration) {
			o.notify(attempt, err, wait)
		}
	}

	//nolint:gosec // Attempts is at least 1.
	retries := uint64(policy.Attempts() - 1)
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(policy.Backoff), retries),
		ctx,
	)

	return backoff.RetryNotifyWithTimer(operation, b, notify, o.timer)
}
