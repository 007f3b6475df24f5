package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port       string `env:"PORT,        default=4000"`
	Env        string `env:"ENV,         default=development"`
	JWTSecret  string `env:"JWT_SECRET,  default=dev-secret"`
	LogLevel   string `env:"LOG_LEVEL,   default=info"`
	AuthCookie string `env:"AUTH_COOKIE, default=krush_token"`
	InboxLimit int    `env:"INBOX_LIMIT, default=100"`

	Mongo     MongoConfig
	Redis     RedisConfig
	Fanout    FanoutConfig
	RateLimit RateLimitConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=krush"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// FanoutConfig sizes the product-change dispatcher. Workers is the number of
// product shards; Concurrency bounds parallel inbox writes per change.
type FanoutConfig struct {
	Workers     int `env:"FANOUT_WORKERS,     default=4"`
	Concurrency int `env:"FANOUT_CONCURRENCY, default=8"`
}

type RateLimitConfig struct {
	MessageLimit  int           `env:"MESSAGE_RATE_LIMIT,  default=30"`
	MessageWindow time.Duration `env:"MESSAGE_RATE_WINDOW, default=1m"`
}

// IsDevelopment reports whether human-friendly output should be used.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration from l.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, err
	}
	if cfg.InboxLimit <= 0 {
		return nil, fmt.Errorf("INBOX_LIMIT must be positive, got %d", cfg.InboxLimit)
	}
	if cfg.RateLimit.MessageLimit <= 0 || cfg.RateLimit.MessageWindow <= 0 {
		return nil, fmt.Errorf("MESSAGE_RATE_LIMIT and MESSAGE_RATE_WINDOW must be positive")
	}
	return &cfg, nil
}
