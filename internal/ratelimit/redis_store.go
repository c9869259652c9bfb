package ratelimit

import (
	"context"
	"time"

	"github.com/aman-churiwal/event-gateway/internal/storage"
)

// RedisCounterStore backs the limiter with Redis INCR, which is atomic
// server-side. The TTL set on first increment reclaims abandoned windows
// without a sweep process.
type RedisCounterStore struct {
	redis *storage.RedisClient
}

func NewRedisCounterStore(redis *storage.RedisClient) *RedisCounterStore {
	return &RedisCounterStore{redis: redis}
}

func (s *RedisCounterStore) IncrementAndGet(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := s.redis.Incr(ctx, key)
	if err != nil {
		return 0, err
	}

	if count == 1 {
		// Best effort; an unexpired counter is shadowed by the next
		// window key anyway.
		_ = s.redis.Expire(ctx, key, ttl)
	}

	return count, nil
}
