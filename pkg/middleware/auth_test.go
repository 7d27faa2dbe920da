package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathfinders/auth-service/pkg/auth"
	"github.com/pathfinders/auth-service/pkg/cache"
	"github.com/pathfinders/auth-service/pkg/config"
	"github.com/pathfinders/auth-service/pkg/observability"
	"github.com/pathfinders/auth-service/pkg/users"
)

// guardStore serves a single canned user
type guardStore struct {
	user    *auth.User
	touched bool
}

func (s *guardStore) Create(ctx context.Context, user *auth.User) error { return nil }

func (s *guardStore) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	return nil, users.ErrNotFound
}

func (s *guardStore) GetByID(ctx context.Context, id int64) (*auth.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, users.ErrNotFound
	}
	clone := *s.user
	return &clone, nil
}

func (s *guardStore) SetRefreshToken(ctx context.Context, id int64, token string) error { return nil }
func (s *guardStore) ClearRefreshToken(ctx context.Context, id int64) error             { return nil }

func (s *guardStore) TouchLastActive(ctx context.Context, id int64) error {
	s.touched = true
	return nil
}

func (s *guardStore) SetResetToken(ctx context.Context, id int64, tokenHash string, expires time.Time) error {
	return nil
}

func (s *guardStore) ResetPassword(ctx context.Context, tokenHash, passwordHash string) (*auth.User, error) {
	return nil, users.ErrNotFound
}

func (s *guardStore) PurgeExpiredResetTokens(ctx context.Context) (int64, error) { return 0, nil }

func newGuardFixture(t *testing.T, sessionCache cache.SessionCache) (*SessionGuard, *guardStore, *auth.TokenIssuer) {
	t.Helper()

	issuer := auth.NewTokenIssuer([]byte("test-secret"), time.Hour, 7*24*time.Hour)
	store := &guardStore{user: &auth.User{
		ID:     7,
		Email:  "user@example.com",
		Role:   auth.RoleUser,
		Status: auth.StatusActive,
	}}
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	return NewSessionGuard(issuer, store, sessionCache, logger, metrics), store, issuer
}

func doGuarded(t *testing.T, guard *SessionGuard, authHeader string) (*httptest.ResponseRecorder, *auth.Session) {
	t.Helper()

	var seen *auth.Session
	handler := guard.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetSession(r)
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest("GET", "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec, seen
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestSessionGuard_ValidToken(t *testing.T) {
	guard, store, issuer := newGuardFixture(t, cache.NewNoopCache())

	pair, err := issuer.Issue(7)
	require.NoError(t, err)

	rec, session := doGuarded(t, guard, "Bearer "+pair.AccessToken)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, session)
	assert.Equal(t, int64(7), session.User.ID)
	assert.Equal(t, pair.AccessToken, session.Token)
	assert.True(t, store.touched)
}

func TestSessionGuard_MissingHeader(t *testing.T) {
	guard, _, _ := newGuardFixture(t, cache.NewNoopCache())

	rec, _ := doGuarded(t, guard, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing authorization header", errorBody(t, rec))
}

func TestSessionGuard_MalformedHeader(t *testing.T) {
	guard, _, _ := newGuardFixture(t, cache.NewNoopCache())

	for _, header := range []string{"Bearer", "Basic abc123", "Bearer "} {
		rec, _ := doGuarded(t, guard, header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestSessionGuard_RefreshTokenRejected(t *testing.T) {
	guard, _, issuer := newGuardFixture(t, cache.NewNoopCache())

	pair, err := issuer.Issue(7)
	require.NoError(t, err)

	rec, _ := doGuarded(t, guard, "Bearer "+pair.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid or expired token", errorBody(t, rec))
}

func TestSessionGuard_ExpiredToken(t *testing.T) {
	guard, _, _ := newGuardFixture(t, cache.NewNoopCache())

	expired := auth.NewTokenIssuer([]byte("test-secret"), -time.Minute, time.Hour)
	pair, err := expired.Issue(7)
	require.NoError(t, err)

	rec, _ := doGuarded(t, guard, "Bearer "+pair.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token has expired", errorBody(t, rec))
}

func TestSessionGuard_BlacklistedToken(t *testing.T) {
	srv := miniredis.RunT(t)
	redisCache, err := cache.NewRedisCache(config.CacheConfig{RedisURL: "redis://" + srv.Addr()})
	require.NoError(t, err)
	defer redisCache.Close()

	guard, _, issuer := newGuardFixture(t, redisCache)

	pair, err := issuer.Issue(7)
	require.NoError(t, err)
	require.NoError(t, redisCache.BlacklistToken(context.Background(), pair.AccessToken, time.Hour))

	rec, _ := doGuarded(t, guard, "Bearer "+pair.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	// Revocation is not distinguishable from any other invalid token
	assert.Equal(t, "invalid or expired token", errorBody(t, rec))
}

func TestSessionGuard_CacheDownFailsOpen(t *testing.T) {
	srv := miniredis.RunT(t)
	redisCache, err := cache.NewRedisCache(config.CacheConfig{RedisURL: "redis://" + srv.Addr()})
	require.NoError(t, err)
	defer redisCache.Close()

	guard, _, issuer := newGuardFixture(t, redisCache)
	srv.Close()

	pair, err := issuer.Issue(7)
	require.NoError(t, err)

	rec, _ := doGuarded(t, guard, "Bearer "+pair.AccessToken)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSessionGuard_UnknownUser(t *testing.T) {
	guard, store, issuer := newGuardFixture(t, cache.NewNoopCache())
	store.user = nil

	pair, err := issuer.Issue(7)
	require.NoError(t, err)

	rec, _ := doGuarded(t, guard, "Bearer "+pair.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid or expired token", errorBody(t, rec))
}

func TestSessionGuard_InactiveAccount(t *testing.T) {
	guard, store, issuer := newGuardFixture(t, cache.NewNoopCache())
	store.user.Status = auth.StatusSuspended

	pair, err := issuer.Issue(7)
	require.NoError(t, err)

	rec, _ := doGuarded(t, guard, "Bearer "+pair.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid or expired token", errorBody(t, rec))
}

func TestRequireRole(t *testing.T) {
	guard, store, issuer := newGuardFixture(t, cache.NewNoopCache())

	handler := guard.Handler(RequireRole(auth.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	pair, err := issuer.Issue(7)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	store.user.Role = auth.RoleAdmin
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireRole_WithoutGuard(t *testing.T) {
	handler := RequireRole(auth.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest("GET", "/admin", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
