package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pathfinders/auth-service/pkg/config"
)

const (
	blacklistPrefix = "blacklist:"
	loginFailPrefix = "loginfail:"

	// Sentinel value for blacklist entries; only key presence matters
	blacklistValue = "1"
)

// RedisCache implements SessionCache over Redis
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a Redis-backed session cache. Connectivity is not
// verified here: the cache is allowed to be down at startup and to come and
// go afterwards, with every call site degrading gracefully.
func NewRedisCache(cfg config.CacheConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	if cfg.RedisPassword != "" {
		opts.Password = cfg.RedisPassword
	}
	if cfg.RedisDB >= 0 {
		opts.DB = cfg.RedisDB
	}
	if cfg.RedisPoolSize > 0 {
		opts.PoolSize = cfg.RedisPoolSize
	}

	// Bounded timeouts: a slow cache must look exactly like an absent one
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolTimeout = 4 * time.Second

	return &RedisCache{client: redis.NewClient(opts)}, nil
}

// BlacklistToken marks a raw access token revoked
func (c *RedisCache) BlacklistToken(ctx context.Context, token string, ttl time.Duration) error {
	return c.client.Set(ctx, blacklistPrefix+token, blacklistValue, ttl).Err()
}

// IsTokenBlacklisted reports whether the raw token has been revoked
func (c *RedisCache) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	_, err := c.client.Get(ctx, blacklistPrefix+token).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}
	return true, nil
}

// IncrementLoginFailures bumps the failed-login counter for an address.
// INCR and EXPIRE are pipelined so a new counter always carries the window
// TTL.
func (c *RedisCache) IncrementLoginFailures(ctx context.Context, addr string, window time.Duration) (int64, error) {
	key := loginFailPrefix + addr

	pipe := c.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis pipeline failed: %w", err)
	}

	return incr.Val(), nil
}

// LoginFailures returns the current failed-login count for an address
func (c *RedisCache) LoginFailures(ctx context.Context, addr string) (int64, error) {
	count, err := c.client.Get(ctx, loginFailPrefix+addr).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get failed: %w", err)
	}
	return count, nil
}

// ResetLoginFailures clears the counter for an address
func (c *RedisCache) ResetLoginFailures(ctx context.Context, addr string) error {
	return c.client.Del(ctx, loginFailPrefix+addr).Err()
}

// Ping checks Redis connectivity
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
