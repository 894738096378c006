package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	appLog "collegedecision/internal/log"
)

// Redis is a fixed-window limiter shared across processes. Each window is a
// counter key that expires with the window.
type Redis struct {
	client   *redis.Client
	prefix   string
	limit    int
	interval time.Duration
	now      func() time.Time
}

// NewRedis allows limit requests per key in each interval. Keys are stored
// under prefix.
func NewRedis(client *redis.Client, prefix string, limit int, interval time.Duration) *Redis {
	return &Redis{
		client:   client,
		prefix:   prefix,
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

// Allow increments the current window counter for key. When Redis is
// unreachable the request is admitted and the failure is logged.
func (r *Redis) Allow(ctx context.Context, key string) error {
	bucket := r.now().UnixNano() / int64(r.interval)
	k := fmt.Sprintf("%s:%s:%d", r.prefix, key, bucket)

	count, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		appLog.Error("ratelimit: incr failed, admitting request", err, "key", key)
		return nil
	}
	if count == 1 {
		if err := r.client.Expire(ctx, k, r.interval).Err(); err != nil {
			appLog.Warn("ratelimit: expire failed", "key", key, "err", err.Error())
		}
	}
	if count > int64(r.limit) {
		return ErrLimited
	}
	return nil
}
