package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// CounterStore is the atomic increment primitive backing the limiter. The
// count in the store is the single source of truth; the limiter never
// caches it, so the limit holds across concurrent requests and across
// multiple gateway instances sharing one store.
type CounterStore interface {
	IncrementAndGet(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed    bool
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// FixedWindowLimiter counts requests per (key, window-start). One counter
// per client per window keeps memory bounded; the trade-off is a burst of
// up to twice the limit straddling a window boundary.
type FixedWindowLimiter struct {
	store    CounterStore
	failOpen bool
	now      func() time.Time
}

func NewFixedWindow(store CounterStore, failOpen bool) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		store:    store,
		failOpen: failOpen,
		now:      time.Now,
	}
}

// FailOpen reports the configured direction for store outages.
func (f *FixedWindowLimiter) FailOpen() bool {
	return f.failOpen
}

// Allow increments the caller's counter for the current window and decides
// admission. When the store is unreachable the returned error is non-nil
// and the Decision follows the configured fail-open/fail-closed direction.
func (f *FixedWindowLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	now := f.now()
	windowStart := now.Truncate(window)
	resetAt := windowStart.Add(window)

	counterKey := fmt.Sprintf("ratelimit:fixed:%s:%d", key, windowStart.Unix())

	count, err := f.store.IncrementAndGet(ctx, counterKey, window)
	if err != nil {
		if f.failOpen {
			return Decision{Allowed: true, Remaining: limit, ResetAt: resetAt}, err
		}
		return Decision{Allowed: false, Remaining: 0, ResetAt: resetAt, RetryAfter: window}, err
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	if count > int64(limit) {
		return Decision{
			Allowed:    false,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: resetAt.Sub(now),
		}, nil
	}

	return Decision{Allowed: true, Remaining: remaining, ResetAt: resetAt}, nil
}
