package config

import (
	"context"
	"time"
)

// RedisConfig enables the shared active-skill snapshot. Empty Addr keeps the cache process-local.
type RedisConfig struct {
	Addr        string        `env:"REDIS_ADDR"`
	Password    string        `env:"REDIS_PASSWORD"`
	DB          int           `env:"REDIS_DB" envDefault:"0" validate:"gte=0"`
	KeyPrefix   string        `env:"REDIS_KEY_PREFIX" envDefault:"vrmentor"`
	DialTimeout time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	// LeaseTTL bounds how long one worker may hold the rebuild lease.
	LeaseTTL time.Duration `env:"REDIS_REFRESH_LEASE_TTL" envDefault:"30s"`
	// SyncInterval is how often workers compare their snapshot version with the shared one.
	SyncInterval time.Duration `env:"REDIS_SYNC_INTERVAL" envDefault:"1m"`
}

func NewRedisConfig(ctx context.Context) *RedisConfig {
	return mustParse[RedisConfig](ctx, "redis")
}

func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}
