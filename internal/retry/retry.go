// Package retry wraps cenkalti/backoff behind an explicit policy object so
// every external call site states its attempt count, delay, and what counts
// as transient.
package retry

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy describes bounded retries with a fixed delay between attempts.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts uint64
	// Delay is the fixed wait between attempts.
	Delay time.Duration
	// Retryable reports whether an error is worth another attempt. A nil
	// predicate retries everything.
	Retryable func(error) bool
}

// Do runs op under the policy. Non-retryable errors abort immediately and are
// returned unwrapped. Context cancellation aborts between attempts.
func (p Policy) Do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), attempts-1),
		ctx,
	)
	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}

// IsTransport reports whether err is a transport-level HTTP failure
// (connection refused, reset, timeout). http.Client wraps these in
// *url.Error; application-level non-2xx responses never are.
func IsTransport(err error) bool {
	var uerr *url.Error
	return errors.As(err, &uerr)
}
