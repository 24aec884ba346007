package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter counts a user's requests in fixed windows shared by every replica.
type RateLimiter struct {
	client *Client
	prefix string
	limit  int64
	window time.Duration
}

// NewRateLimiter allows limit requests per window. A non-positive limit disables limiting.
func NewRateLimiter(client *Client, prefix string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
		limit:  int64(limit),
		window: window,
	}
}

func (r *RateLimiter) Allow(ctx context.Context, user int64) (bool, error) {
	const operation = "redis.Allow"

	if r.limit <= 0 {
		return true, nil
	}

	key := fmt.Sprintf("ratelimit:%s:%d", r.prefix, user)
	n, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, fmt.Errorf("%s: incr: %w", operation, err)
	}
	if n == 1 {
		if _, err := r.client.Expire(ctx, key, r.window); err != nil {
			return false, fmt.Errorf("%s: expire: %w", operation, err)
		}
	}
	return n <= r.limit, nil
}
