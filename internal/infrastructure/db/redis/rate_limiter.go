package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window counter per (action, subject).
// Key format: ratelimit:<action>:<subject>
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewRateLimiter allows limit calls per window for each subject.
func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, limit: int64(limit), window: window}
}

// Allow counts one call and reports whether it is within the window's budget.
// The window starts on the first call and the key expires with it.
func (l *RateLimiter) Allow(ctx context.Context, action, subject string) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}

	key := l.key(action, subject)
	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit: %w", err)
	}
	return incr.Val() <= l.limit, nil
}

func (l *RateLimiter) key(action, subject string) string {
	return fmt.Sprintf("ratelimit:%s:%s", action, subject)
}
