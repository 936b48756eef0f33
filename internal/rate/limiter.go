package rate

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a fixed-window counter shared by every process pointing at the same
// Redis, so replicas enforce one budget per client.
type Limiter struct {
	redis  redis.UniversalClient
	prefix string
}

// New returns a Limiter. Keys are written under prefix + ":rl:".
func New(redisClient redis.UniversalClient, prefix string) *Limiter {
	if prefix == "" {
		prefix = "cv"
	}
	return &Limiter{
		redis:  redisClient,
		prefix: prefix,
	}
}

// Allow counts one hit for key and returns ErrRateLimited when the hit exceeds
// limit within the current window.
func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration) error {
	count, err := l.incrementWithTTL(ctx, l.key(key), window)
	if err != nil {
		return err
	}
	if count > int64(limit) {
		return ErrRateLimited
	}
	return nil
}

// Remaining reports how many hits key has left in the current window.
func (l *Limiter) Remaining(ctx context.Context, key string, limit int) (int, error) {
	count, err := l.redis.Get(ctx, l.key(key)).Int64()
	if err != nil {
		if err == redis.Nil {
			return limit, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if left := int64(limit) - count; left > 0 {
		return int(left), nil
	}
	return 0, nil
}

func (l *Limiter) key(key string) string {
	return l.prefix + ":rl:" + key
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed window: the first hit starts the clock.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}
