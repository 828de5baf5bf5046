// Package retry provides a bounded retry combinator with exponential backoff.
//
// It is shared by the bookmark source and the media fetcher so both apply the
// same attempt accounting: one initial attempt plus at most MaxRetries retries.
package retry

import (
	"context"
	"time"
)

// Policy describes how an operation is retried.
type Policy struct {
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int

	// BaseDelay is the wait before the first retry. It doubles on every retry.
	BaseDelay time.Duration

	// Retryable reports whether an error is transient. Nil treats every error as permanent.
	Retryable func(error) bool
}

// Backoff returns the delay before retry number attempt (0-based): BaseDelay * 2^attempt.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	return p.BaseDelay << uint(attempt)
}

// MaxAttempts returns the total number of attempts the policy allows.
func (p Policy) MaxAttempts() int {
	if p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

func (p Policy) retryable(err error) bool {
	return p.Retryable != nil && p.Retryable(err)
}

// Op is a single attempt. attempt is 0 for the first call.
type Op func(ctx context.Context, attempt int) error

// Do runs op until it succeeds, fails permanently, or the policy is exhausted.
// It returns the number of attempts made and the last error.
// Context cancellation stops retrying and is returned as-is.
func Do(ctx context.Context, p Policy, op Op) (int, error) {
	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return attempts, err
		}

		err := op(ctx, attempts)
		attempts++
		if err == nil {
			return attempts, nil
		}
		if !p.retryable(err) || attempts >= p.MaxAttempts() {
			return attempts, err
		}
		if ctx.Err() != nil {
			return attempts, err
		}

		if sleepErr := Sleep(ctx, p.Backoff(attempts-1)); sleepErr != nil {
			return attempts, sleepErr
		}
	}
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
