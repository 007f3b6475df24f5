// Package redis holds the Redis-backed pieces of the messaging core: the
// client used by the readiness probe and the per-user send rate limiter.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// The limiter sits on the message-send path, so commands get a tight budget;
// a slow Redis makes the limiter fail open rather than stall the request.
const (
	defaultDialTimeout = 5 * time.Second
	defaultOpTimeout   = 500 * time.Millisecond
)

// Config is the subset of REDIS_* settings the core uses.
type Config struct {
	Addr     string
	Password string
	DB       int
	// DialTimeout bounds connection setup and the startup ping.
	DialTimeout time.Duration
	// OpTimeout bounds each read and write once connected.
	OpTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.DialTimeout <= 0 {
		c.DialTimeout = defaultDialTimeout
	}
	if c.OpTimeout <= 0 {
		c.OpTimeout = defaultOpTimeout
	}
	return c
}

func (c Config) options() *redis.Options {
	return &redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.OpTimeout,
		WriteTimeout: c.OpTimeout,
	}
}

// Connect opens the client and pings it once, so a misconfigured REDIS_ADDR
// fails at startup instead of silently disabling the rate limit.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	cfg = cfg.withDefaults()
	client := redis.NewClient(cfg.options())

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}
