package middlewares

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateStore shares fixed-window counters across instances.
type RedisRateStore struct {
	rdb    redis.Cmdable
	prefix string
}

func NewRedisRateStore(rdb redis.Cmdable, prefix string) *RedisRateStore {
	if prefix == "" {
		prefix = "fleetreg:ratelimit:"
	}
	return &RedisRateStore{rdb: rdb, prefix: prefix}
}

func (s *RedisRateStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	k := s.prefix + key

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, window)
		ttl = pipe.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", key, err)
	}

	if incr.Val() > int64(limit) {
		return Decision{Allowed: false, RetryAfter: ttl.Val()}, nil
	}
	return Decision{Allowed: true}, nil
}
