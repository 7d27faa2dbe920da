package cache

import (
	"context"
	"time"
)

// SessionCache is the optional revocation/rate-limit store. Implementations
// are best-effort: callers must treat every error as "cache unavailable" and
// fail open (skip the check, skip the count), never reject a request because
// the cache is down.
type SessionCache interface {
	// BlacklistToken marks a raw access token revoked until ttl elapses.
	// The TTL is the full configured access lifetime, so an entry always
	// outlives the token it covers.
	BlacklistToken(ctx context.Context, token string, ttl time.Duration) error

	// IsTokenBlacklisted reports whether the raw token has been revoked
	IsTokenBlacklisted(ctx context.Context, token string) (bool, error)

	// IncrementLoginFailures bumps the failed-login counter for a client
	// address, starting the rolling window on first failure, and returns
	// the new count.
	IncrementLoginFailures(ctx context.Context, addr string, window time.Duration) (int64, error)

	// LoginFailures returns the current failed-login count for an address
	LoginFailures(ctx context.Context, addr string) (int64, error)

	// ResetLoginFailures clears the counter after a successful login
	ResetLoginFailures(ctx context.Context, addr string) error

	// Ping checks cache connectivity
	Ping(ctx context.Context) error

	// Close releases the underlying connections
	Close() error
}
