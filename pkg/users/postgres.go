package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pathfinders/auth-service/pkg/auth"
)

const userColumns = `id, email, password_hash, name, mobile_number, date_of_birth, gender, location,
	role, status, refresh_token, reset_token_hash, reset_token_expires, last_active, created_at, updated_at`

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts a new user record
func (s *PostgresStore) Create(ctx context.Context, user *auth.User) error {
	if user.Role == "" {
		user.Role = auth.RoleUser
	}
	if user.Status == "" {
		user.Status = auth.StatusActive
	}

	query := `
		INSERT INTO users (email, password_hash, name, mobile_number, date_of_birth, gender, location, role, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, user.Name,
		nullString(user.MobileNumber), user.DateOfBirth,
		nullString(user.Gender), nullString(user.Location),
		user.Role, user.Status).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByEmail looks up a user by case-insensitive email
func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = LOWER($1)`
	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

// GetByID looks up a user by primary key
func (s *PostgresStore) GetByID(ctx context.Context, id int64) (*auth.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// SetRefreshToken overwrites the stored refresh token
func (s *PostgresStore) SetRefreshToken(ctx context.Context, id int64, token string) error {
	return s.exec(ctx, `UPDATE users SET refresh_token = $1, updated_at = NOW() WHERE id = $2`, token, id)
}

// ClearRefreshToken removes the stored refresh token
func (s *PostgresStore) ClearRefreshToken(ctx context.Context, id int64) error {
	return s.exec(ctx, `UPDATE users SET refresh_token = NULL, updated_at = NOW() WHERE id = $1`, id)
}

// TouchLastActive updates the last-active timestamp
func (s *PostgresStore) TouchLastActive(ctx context.Context, id int64) error {
	return s.exec(ctx, `UPDATE users SET last_active = NOW() WHERE id = $1`, id)
}

// SetResetToken stores the reset token hash and its expiry
func (s *PostgresStore) SetResetToken(ctx context.Context, id int64, tokenHash string, expires time.Time) error {
	return s.exec(ctx,
		`UPDATE users SET reset_token_hash = $1, reset_token_expires = $2, updated_at = NOW() WHERE id = $3`,
		tokenHash, expires, id)
}

// ResetPassword consumes a reset token in a single atomic update: the
// password change and the token invalidation land together or not at all.
func (s *PostgresStore) ResetPassword(ctx context.Context, tokenHash, passwordHash string) (*auth.User, error) {
	query := `
		UPDATE users
		SET password_hash = $1, reset_token_hash = NULL, reset_token_expires = NULL, updated_at = NOW()
		WHERE reset_token_hash = $2 AND reset_token_expires > NOW()
		RETURNING ` + userColumns
	return s.scanUser(s.db.QueryRowContext(ctx, query, passwordHash, tokenHash))
}

// PurgeExpiredResetTokens clears reset fields whose expiry has passed
func (s *PostgresStore) PurgeExpiredResetTokens(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET reset_token_hash = NULL, reset_token_expires = NULL
		WHERE reset_token_expires IS NOT NULL AND reset_token_expires <= NOW()
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge reset tokens: %w", err)
	}
	return result.RowsAffected()
}

func (s *PostgresStore) exec(ctx context.Context, query string, args ...interface{}) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *PostgresStore) scanUser(row rowScanner) (*auth.User, error) {
	user := &auth.User{}
	var (
		mobileNumber sql.NullString
		dateOfBirth  sql.NullTime
		gender       sql.NullString
		location     sql.NullString
		refreshToken sql.NullString
		resetHash    sql.NullString
		resetExpires sql.NullTime
		lastActive   sql.NullTime
	)

	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name,
		&mobileNumber, &dateOfBirth, &gender, &location,
		&user.Role, &user.Status,
		&refreshToken, &resetHash, &resetExpires, &lastActive,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	user.MobileNumber = mobileNumber.String
	user.Gender = gender.String
	user.Location = location.String
	user.RefreshToken = refreshToken.String
	user.ResetTokenHash = resetHash.String
	if dateOfBirth.Valid {
		user.DateOfBirth = &dateOfBirth.Time
	}
	if resetExpires.Valid {
		user.ResetTokenExpires = &resetExpires.Time
	}
	if lastActive.Valid {
		user.LastActive = &lastActive.Time
	}

	return user, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
