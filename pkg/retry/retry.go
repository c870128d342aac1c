// Package retry provides a bounded retry policy with exponential backoff,
// shared by every operation in this repository that retries.
package retry

import (
	"context"
	"errors"
	"time"
)

// Policy describes how often and how patiently an operation is retried.
type Policy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int

	// BaseDelay is the backoff base. Attempt n (zero-based) waits
	// BaseDelay * 2^n before the next try.
	BaseDelay time.Duration

	// Sleep is replaceable in tests. Defaults to a context-aware wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewPolicy returns a Policy with the given attempt cap and backoff base.
func NewPolicy(maxAttempts int, baseDelay time.Duration) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
	}
}

// Backoff returns the delay applied after the given zero-based attempt.
func (p Policy) Backoff(attempt int) time.Duration {
	return p.BaseDelay << uint(attempt)
}

// Do runs fn up to MaxAttempts times. It retries only while retryable
// classifies the returned error as transient; any other error is returned
// immediately. When attempts are exhausted the last error is returned.
func (p Policy) Do(ctx context.Context, fn func() error, retryable func(error) bool) error {
	var lastErr error

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts-1 {
			break
		}
		if err := p.sleep(ctx, p.Backoff(attempt)); err != nil {
			return errors.Join(lastErr, err)
		}
	}

	return lastErr
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
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
