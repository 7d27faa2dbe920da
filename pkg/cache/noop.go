package cache

import (
	"context"
	"time"
)

// NoopCache is the null-object SessionCache used when no cache backend is
// configured. Every check answers as if it passed: no token is blacklisted
// and no address has failed logins, which is exactly the fail-open behavior
// a down cache produces.
type NoopCache struct{}

// NewNoopCache creates a no-op session cache
func NewNoopCache() *NoopCache {
	return &NoopCache{}
}

func (*NoopCache) BlacklistToken(ctx context.Context, token string, ttl time.Duration) error {
	return nil
}

func (*NoopCache) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	return false, nil
}

func (*NoopCache) IncrementLoginFailures(ctx context.Context, addr string, window time.Duration) (int64, error) {
	return 0, nil
}

func (*NoopCache) LoginFailures(ctx context.Context, addr string) (int64, error) {
	return 0, nil
}

func (*NoopCache) ResetLoginFailures(ctx context.Context, addr string) error {
	return nil
}

func (*NoopCache) Ping(ctx context.Context) error {
	return nil
}

func (*NoopCache) Close() error {
	return nil
}
