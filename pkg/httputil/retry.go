// Package httputil provides shared HTTP plumbing: retry with exponential
// backoff for transient registry failures.
package httputil

import (
	"context"
	"errors"
	"time"
)

// RetryableError wraps an error to indicate it should trigger a retry.
// Wrap transient failures (network timeouts, 5xx responses) with this type
// so that [Retry] knows to attempt the operation again. Definitive answers
// (a 404, a decode failure) must not be wrapped: retrying them only delays
// the verdict.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry executes fn up to attempts times with exponential backoff.
// It only retries errors wrapped with [RetryableError]; other errors are
// returned immediately. The delay doubles after each failed attempt.
// Returns the last error if all attempts fail, or ctx.Err() if cancelled.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := 0; i < attempts; i++ {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !isRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

// Policy bounds retries for one lookup backend.
type Policy struct {
	// Attempts is the number of tries per request, minimum 1.
	Attempts int
	// Delay is the initial backoff, doubled after each failed attempt.
	Delay time.Duration
}

// DefaultPolicy suits public registry lookups: transient 5xx responses and
// connection drops usually clear within a couple of seconds.
var DefaultPolicy = Policy{Attempts: 3, Delay: time.Second}

// Do executes fn under the policy. Zero or negative fields fall back to
// the DefaultPolicy values.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	if p.Attempts < 1 {
		p.Attempts = DefaultPolicy.Attempts
	}
	if p.Delay <= 0 {
		p.Delay = DefaultPolicy.Delay
	}
	return Retry(ctx, p.Attempts, p.Delay, fn)
}

func isRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}
