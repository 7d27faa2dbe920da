package users

import (
	"context"
	"errors"
	"time"

	"github.com/pathfinders/auth-service/pkg/auth"
)

var (
	// ErrNotFound is returned when no user matches the lookup
	ErrNotFound = errors.New("user not found")

	// ErrDuplicateEmail is returned when the email is already registered
	ErrDuplicateEmail = errors.New("email already registered")
)

// Store is the credential store. It is the sole source of truth for user
// records; unlike the revocation cache it is never optional, and its errors
// always propagate.
type Store interface {
	// Create inserts a new user record, populating ID and timestamps.
	// Returns ErrDuplicateEmail when the email is taken.
	Create(ctx context.Context, user *auth.User) error

	// GetByEmail looks up a user by case-insensitive email
	GetByEmail(ctx context.Context, email string) (*auth.User, error)

	// GetByID looks up a user by primary key
	GetByID(ctx context.Context, id int64) (*auth.User, error)

	// SetRefreshToken overwrites the user's stored refresh token,
	// invalidating any previously issued one.
	SetRefreshToken(ctx context.Context, id int64, token string) error

	// ClearRefreshToken removes the stored refresh token
	ClearRefreshToken(ctx context.Context, id int64) error

	// TouchLastActive updates the user's last-active timestamp
	TouchLastActive(ctx context.Context, id int64) error

	// SetResetToken stores the hash and expiry of an outstanding password
	// reset token, replacing any previous one.
	SetResetToken(ctx context.Context, id int64, tokenHash string, expires time.Time) error

	// ResetPassword atomically sets the new password hash and clears the
	// reset token fields for the user whose unexpired reset token hash
	// matches. Returns ErrNotFound when no such user exists.
	ResetPassword(ctx context.Context, tokenHash, passwordHash string) (*auth.User, error)

	// PurgeExpiredResetTokens clears reset token fields whose expiry has
	// passed, returning the number of rows touched.
	PurgeExpiredResetTokens(ctx context.Context) (int64, error)
}
