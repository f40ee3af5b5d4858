// Package errors provides retry utilities for Wayfarer.
package errors

import (
	"context"
	"errors"
	"time"
)

// ============================================================
// Retry Configuration
// ============================================================

// Policy defines retry behavior.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first
	MaxAttempts int

	// Delay is the fixed pause between attempts
	Delay time.Duration

	// AttemptTimeout bounds a single attempt; zero disables it
	AttemptTimeout time.Duration

	// RetryIf determines if an error is retryable
	RetryIf func(error) bool

	// OnRetry is called before sleeping for the next attempt
	OnRetry func(attempt int, err error)
}

// DefaultPolicy returns the generation retry policy: 3 attempts, 500ms apart.
func DefaultPolicy() *Policy {
	return &Policy{
		MaxAttempts: 3,
		Delay:       500 * time.Millisecond,
		RetryIf:     IsRetryable,
	}
}

// NoRetry returns a policy that never retries.
func NoRetry() *Policy {
	return &Policy{
		MaxAttempts: 1,
		RetryIf:     func(error) bool { return false },
	}
}

// ============================================================
// Retry Function
// ============================================================

// Do runs fn until it succeeds, fails with a non-retryable error, or the
// attempt budget is spent. The last error is returned unchanged.
//
// A cancelled ctx stops the loop immediately with a Cancelled error (Timeout
// when the ctx deadline passed). When AttemptTimeout is set, an attempt that
// outlives it fails with a Timeout error.
func Do[T any](ctx context.Context, policy *Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if policy == nil {
		policy = DefaultPolicy()
	}
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	retryIf := policy.RetryIf
	if retryIf == nil {
		retryIf = IsRetryable
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, fromContext(err, lastErr)
		}

		result, err := runAttempt(ctx, policy.AttemptTimeout, fn)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, fromContext(ctxErr, lastErr)
		}
		if !retryIf(lastErr) {
			return zero, lastErr
		}
		if attempt == attempts {
			break
		}

		if policy.OnRetry != nil {
			policy.OnRetry(attempt, lastErr)
		}
		if err := sleep(ctx, policy.Delay); err != nil {
			return zero, fromContext(err, lastErr)
		}
	}

	return zero, lastErr
}

func runAttempt[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := fn(attemptCtx)
	if err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		if !IsKind(err, KindTimeout) {
			err = Timeout(err)
		}
	}
	return result, err
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
