package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/aman-churiwal/event-gateway/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, failOpen bool) (*miniredis.Miniredis, *FixedWindowLimiter) {
	t.Helper()

	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisCounterStore(storage.NewRedisWithClient(client))
	return m, NewFixedWindow(store, failOpen)
}

func TestFixedWindowAllowsUpToLimit(t *testing.T) {
	_, limiter := newTestLimiter(t, false)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return base }

	ctx := context.Background()
	limit := 3
	window := time.Minute

	for i := 0; i < limit; i++ {
		decision, err := limiter.Allow(ctx, "client-a", limit, window)
		require.NoError(t, err)
		assert.True(t, decision.Allowed, "request %d within limit should be admitted", i+1)
		assert.Equal(t, limit-i-1, decision.Remaining)
		assert.Equal(t, base.Add(window), decision.ResetAt)
	}

	decision, err := limiter.Allow(ctx, "client-a", limit, window)
	require.NoError(t, err)
	assert.False(t, decision.Allowed, "request past the limit should be rejected")
	assert.Equal(t, 0, decision.Remaining)
	assert.Equal(t, window, decision.RetryAfter)
}

func TestFixedWindowNewWindowResetsCounter(t *testing.T) {
	_, limiter := newTestLimiter(t, false)
	base := time.Date(2026, 3, 1, 12, 0, 30, 0, time.UTC)
	limiter.now = func() time.Time { return base }

	ctx := context.Background()
	limit := 2
	window := time.Minute

	for i := 0; i < limit+1; i++ {
		_, err := limiter.Allow(ctx, "client-a", limit, window)
		require.NoError(t, err)
	}

	// Cross the window boundary
	limiter.now = func() time.Time { return base.Add(window) }

	decision, err := limiter.Allow(ctx, "client-a", limit, window)
	require.NoError(t, err)
	assert.True(t, decision.Allowed, "new window should admit again")
	assert.Equal(t, limit-1, decision.Remaining)
}

func TestFixedWindowKeysAreIndependent(t *testing.T) {
	_, limiter := newTestLimiter(t, false)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := limiter.Allow(ctx, "client-a", 1, time.Minute)
		require.NoError(t, err)
	}

	decision, err := limiter.Allow(ctx, "client-b", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, decision.Allowed, "client-b has its own counter")
}

func TestFixedWindowCounterExpires(t *testing.T) {
	m, limiter := newTestLimiter(t, false)
	ctx := context.Background()

	_, err := limiter.Allow(ctx, "client-a", 5, time.Minute)
	require.NoError(t, err)

	require.Len(t, m.Keys(), 1)
	m.FastForward(2 * time.Minute)
	assert.Empty(t, m.Keys(), "window counter should expire with the window")
}

type failingStore struct {
	err error
}

func (s *failingStore) IncrementAndGet(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	return 0, s.err
}

func TestFixedWindowStoreErrorFailOpen(t *testing.T) {
	limiter := NewFixedWindow(&failingStore{err: errors.New("connection refused")}, true)

	decision, err := limiter.Allow(context.Background(), "client-a", 5, time.Minute)
	require.Error(t, err)
	assert.True(t, decision.Allowed, "fail-open admits when the store is down")
	assert.True(t, limiter.FailOpen())
}

func TestFixedWindowStoreErrorFailClosed(t *testing.T) {
	limiter := NewFixedWindow(&failingStore{err: errors.New("connection refused")}, false)

	decision, err := limiter.Allow(context.Background(), "client-a", 5, time.Minute)
	require.Error(t, err)
	assert.False(t, decision.Allowed, "fail-closed rejects when the store is down")
	assert.Equal(t, time.Minute, decision.RetryAfter)
	assert.False(t, limiter.FailOpen())
}

func TestRedisCounterStoreIncrements(t *testing.T) {
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisCounterStore(storage.NewRedisWithClient(client))
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		count, err := store.IncrementAndGet(ctx, "counter", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, count)
	}

	ttl := m.TTL("counter")
	assert.Equal(t, time.Minute, ttl, "TTL set on first increment")
}
