package users

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathfinders/auth-service/pkg/auth"
)

var userColumnList = []string{
	"id", "email", "password_hash", "name", "mobile_number", "date_of_birth", "gender", "location",
	"role", "status", "refresh_token", "reset_token_hash", "reset_token_expires", "last_active",
	"created_at", "updated_at",
}

func userRow(id int64, email string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userColumnList).AddRow(
		id, email, "$2a$10$hash", "Test User",
		nil, nil, nil, nil,
		"user", "active",
		nil, nil, nil, nil,
		now, now,
	)
}

func TestPostgresStore_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("new@example.com", "$2a$10$hash", "New User",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			"user", "active").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(1), now, now))

	store := NewPostgresStore(db)
	user := &auth.User{
		Email:        "new@example.com",
		PasswordHash: "$2a$10$hash",
		Name:         "New User",
	}

	require.NoError(t, store.Create(context.Background(), user))
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, auth.RoleUser, user.Role)
	assert.Equal(t, auth.StatusActive, user.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Create_DuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_users_email"})

	store := NewPostgresStore(db)
	err = store.Create(context.Background(), &auth.User{Email: "taken@example.com"})

	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email = LOWER").
		WithArgs("user@example.com").
		WillReturnRows(userRow(5, "user@example.com"))

	store := NewPostgresStore(db)
	user, err := store.GetByEmail(context.Background(), "user@example.com")

	require.NoError(t, err)
	assert.Equal(t, int64(5), user.ID)
	assert.Equal(t, "user@example.com", user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetByEmail_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email = LOWER").
		WithArgs("missing@example.com").
		WillReturnRows(sqlmock.NewRows(userColumnList))

	store := NewPostgresStore(db)
	_, err = store.GetByEmail(context.Background(), "missing@example.com")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetRefreshToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE users SET refresh_token").
		WithArgs("new-token", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewPostgresStore(db)
	require.NoError(t, store.SetRefreshToken(context.Background(), 5, "new-token"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetRefreshToken_NoSuchUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE users SET refresh_token").
		WithArgs("new-token", int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewPostgresStore(db)
	err = store.SetRefreshToken(context.Background(), 99, "new-token")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ResetPassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("UPDATE users").
		WithArgs("$2a$10$newhash", "deadbeef").
		WillReturnRows(userRow(5, "user@example.com"))

	store := NewPostgresStore(db)
	user, err := store.ResetPassword(context.Background(), "deadbeef", "$2a$10$newhash")

	require.NoError(t, err)
	assert.Equal(t, int64(5), user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ResetPassword_InvalidToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Expired or unknown token hashes match no row
	mock.ExpectQuery("UPDATE users").
		WithArgs("$2a$10$newhash", "unknown").
		WillReturnRows(sqlmock.NewRows(userColumnList))

	store := NewPostgresStore(db)
	_, err = store.ResetPassword(context.Background(), "unknown", "$2a$10$newhash")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PurgeExpiredResetTokens(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE users").
		WillReturnResult(sqlmock.NewResult(0, 3))

	store := NewPostgresStore(db)
	n, err := store.PurgeExpiredResetTokens(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
