package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter implements a fixed-window counter backed by Redis.
// Key format: ratelimit:<caller>:<window_start_unix>
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewRateLimiter allows `limit` requests per caller per `window`.
func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{client: client, limit: limit, window: window}
}

// Allow counts one request for the caller and reports whether it is still
// within the window's budget. The counter key expires with the window, so
// idle callers cost nothing.
func (r *RateLimiter) Allow(ctx context.Context, caller string) (bool, error) {
	key := r.key(caller, time.Now())

	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}
	if n == 1 {
		if err := r.client.Expire(ctx, key, r.window).Err(); err != nil {
			return false, fmt.Errorf("rate limit expire: %w", err)
		}
	}
	return n <= r.limit, nil
}

func (r *RateLimiter) key(caller string, now time.Time) string {
	windowStart := now.Unix() - now.Unix()%int64(r.window.Seconds())
	return fmt.Sprintf("ratelimit:%s:%d", caller, windowStart)
}
