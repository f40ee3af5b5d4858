// Package ratelimit throttles how often callers may start generations.
//
// The limiter is independent of the generation pipeline; callers compose it
// around entry points with Guard.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/wayfarer-app/wayfarer/internal/errors"
)

const (
	// DefaultLimit is the default ceiling per window.
	DefaultLimit = 10

	// DefaultWindow is the sliding window length.
	DefaultWindow = time.Minute
)

// Limiter counts attempts in a sliding window.
type Limiter interface {
	// CanProceed reports whether another attempt fits in the window.
	CanProceed(ctx context.Context) (bool, error)

	// RecordAttempt adds an attempt at the current time.
	RecordAttempt(ctx context.Context) error
}

// Reserver checks and records in one atomic step.
// ok is false when the window is full; retryAfter is then the time until
// the oldest attempt leaves the window.
type Reserver interface {
	Reserve(ctx context.Context) (ok bool, retryAfter time.Duration, err error)
}

// Window is an in-process sliding window. It is safe for concurrent use.
type Window struct {
	limit  int
	window time.Duration
	clk    func() time.Time

	mu     sync.Mutex
	stamps []time.Time // oldest first
}

// NewWindow creates a limiter allowing limit attempts per window.
// Non-positive values use the defaults; a nil clk uses time.Now.
func NewWindow(limit int, window time.Duration, clk func() time.Time) *Window {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if clk == nil {
		clk = time.Now
	}
	return &Window{limit: limit, window: window, clk: clk}
}

// CanProceed implements Limiter.
func (w *Window) CanProceed(context.Context) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune(w.clk())
	return len(w.stamps) < w.limit, nil
}

// RecordAttempt implements Limiter.
func (w *Window) RecordAttempt(context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.clk()
	w.prune(now)
	w.stamps = append(w.stamps, now)
	return nil
}

// Reserve implements Reserver.
func (w *Window) Reserve(context.Context) (bool, time.Duration, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.clk()
	w.prune(now)
	if len(w.stamps) >= w.limit {
		return false, w.stamps[0].Add(w.window).Sub(now), nil
	}
	w.stamps = append(w.stamps, now)
	return true, 0, nil
}

// Count returns the attempts currently in the window.
func (w *Window) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune(w.clk())
	return len(w.stamps)
}

// prune drops attempts at least one window old. Caller holds mu.
func (w *Window) prune(now time.Time) {
	cutoff := now.Add(-w.window)
	i := 0
	for i < len(w.stamps) && !w.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[i:]...)
	}
}

// Guard runs fn if l admits another attempt, recording it first.
// A full window fails with RateLimited without calling fn. A nil l
// admits everything.
func Guard[T any](ctx context.Context, l Limiter, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if l == nil {
		return fn(ctx)
	}

	if r, ok := l.(Reserver); ok {
		admitted, retryAfter, err := r.Reserve(ctx)
		if err != nil {
			return zero, err
		}
		if !admitted {
			return zero, errors.RateLimited(retryAfter)
		}
		return fn(ctx)
	}

	admitted, err := l.CanProceed(ctx)
	if err != nil {
		return zero, err
	}
	if !admitted {
		return zero, errors.RateLimited(0)
	}
	if err := l.RecordAttempt(ctx); err != nil {
		return zero, err
	}
	return fn(ctx)
}
