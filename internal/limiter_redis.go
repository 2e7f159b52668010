package intake

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const limiterKeyPrefix = "intake:ratelimit:"

// RedisLimiter is a sliding-window limiter over a Redis sorted set per
// identity, for deployments where submissions are spread across instances.
// Each admitted submission becomes a member scored with its unix-milli
// timestamp; eviction is a range delete below the window cutoff.
type RedisLimiter struct {
	client *redis.Client
	max    int64
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, max: int64(max), window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, identity string, now time.Time) (bool, error) {
	key := limiterKeyPrefix + identity
	cutoff := strconv.FormatInt(now.Add(-l.window).UnixMilli(), 10)

	count, err := l.client.ZCount(ctx, key, cutoff, "+inf").Result()
	if err != nil {
		return false, fmt.Errorf("count window for %q: %w", identity, err)
	}
	if count >= l.max {
		// rejected attempts are not recorded
		return false, nil
	}

	p := l.client.Pipeline()
	p.ZRemRangeByScore(ctx, key, "-inf", "("+cutoff)
	p.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: uuid.New().String(),
	})
	p.Expire(ctx, key, l.window)
	if _, err := p.Exec(ctx); err != nil {
		return false, fmt.Errorf("record submission for %q: %w", identity, err)
	}
	return true, nil
}
