package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pathfinders/auth-service/pkg/auth"
	"github.com/pathfinders/auth-service/pkg/cache"
	"github.com/pathfinders/auth-service/pkg/config"
	"github.com/pathfinders/auth-service/pkg/mailer"
	"github.com/pathfinders/auth-service/pkg/observability"
	"github.com/pathfinders/auth-service/pkg/users"
)

// Service orchestrates the login, refresh, logout, and password reset flows
// over the credential store, the token issuer, the optional revocation
// cache, and the mail collaborator.
type Service struct {
	store   users.Store
	cache   cache.SessionCache
	issuer  *auth.TokenIssuer
	mailer  mailer.Mailer
	logger  *observability.Logger
	metrics *observability.Metrics
	cfg     config.AuthConfig
}

// NewService creates the auth service. The cache is an explicit dependency:
// pass cache.NewNoopCache() when no backend is configured.
func NewService(
	store users.Store,
	sessionCache cache.SessionCache,
	issuer *auth.TokenIssuer,
	m mailer.Mailer,
	logger *observability.Logger,
	metrics *observability.Metrics,
	cfg config.AuthConfig,
) *Service {
	return &Service{
		store:   store,
		cache:   sessionCache,
		issuer:  issuer,
		mailer:  m,
		logger:  logger,
		metrics: metrics,
		cfg:     cfg,
	}
}

// Issuer exposes the token issuer for the session guard
func (s *Service) Issuer() *auth.TokenIssuer {
	return s.issuer
}

// RegisterInput is the validated registration payload
type RegisterInput struct {
	Email        string
	Password     string
	Name         string
	MobileNumber string
	DateOfBirth  *time.Time
	Gender       string
	Location     string
}

// Register creates a new active user and issues its first token pair.
// Duplicate emails are the one place the service deliberately reveals
// account existence (product requirement).
func (s *Service) Register(ctx context.Context, in RegisterInput) (*auth.User, auth.TokenPair, error) {
	passwordHash, err := auth.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, auth.TokenPair{}, auth.Wrap(auth.CodeServer, "hashing password", err)
	}

	user := &auth.User{
		Email:        in.Email,
		PasswordHash: passwordHash,
		Name:         in.Name,
		MobileNumber: in.MobileNumber,
		DateOfBirth:  in.DateOfBirth,
		Gender:       in.Gender,
		Location:     in.Location,
		Role:         auth.RoleUser,
		Status:       auth.StatusActive,
	}

	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			s.metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
			return nil, auth.TokenPair{}, auth.E(auth.CodeAlreadyExists, "email already registered")
		}
		s.metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, auth.TokenPair{}, auth.Wrap(auth.CodeServer, "creating user", err)
	}

	pair, err := s.issueAndPersist(ctx, user.ID)
	if err != nil {
		return nil, auth.TokenPair{}, err
	}

	s.metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	s.logger.WithField("user_id", user.ID).Info("user registered")
	return user, pair, nil
}

// Login verifies credentials and issues a fresh token pair, rotating the
// stored refresh token. The failed-attempt gate runs first and fails open
// when the cache is unreachable.
func (s *Service) Login(ctx context.Context, email, password, clientAddr string) (*auth.User, auth.TokenPair, error) {
	failures, err := s.cache.LoginFailures(ctx, clientAddr)
	if err != nil {
		s.cacheDegraded("login_failures", err)
		failures = 0
	}
	if failures >= int64(s.cfg.LoginMaxAttempts) {
		s.metrics.RateLimitRejections.Inc()
		s.metrics.LoginsTotal.WithLabelValues("rate_limited").Inc()
		return nil, auth.TokenPair{}, auth.E(auth.CodeTooManyAttempts, "too many login attempts")
	}

	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			// Same error as a wrong password: no account enumeration
			s.metrics.LoginsTotal.WithLabelValues("invalid").Inc()
			return nil, auth.TokenPair{}, auth.E(auth.CodeInvalidCredentials, "invalid credentials")
		}
		s.metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, auth.TokenPair{}, auth.Wrap(auth.CodeServer, "looking up user", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		if _, err := s.cache.IncrementLoginFailures(ctx, clientAddr, s.cfg.LoginWindow); err != nil {
			s.cacheDegraded("increment_login_failures", err)
		}
		s.metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return nil, auth.TokenPair{}, auth.E(auth.CodeInvalidCredentials, "invalid credentials")
	}

	if user.Status != auth.StatusActive {
		s.metrics.LoginsTotal.WithLabelValues("inactive").Inc()
		return nil, auth.TokenPair{}, auth.E(auth.CodeAccountInactive, "account is not active")
	}

	if err := s.cache.ResetLoginFailures(ctx, clientAddr); err != nil {
		s.cacheDegraded("reset_login_failures", err)
	}

	pair, err := s.issueAndPersist(ctx, user.ID)
	if err != nil {
		return nil, auth.TokenPair{}, err
	}

	s.metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.logger.WithField("user_id", user.ID).Info("user logged in")
	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a new pair. Rotation is
// enforced by exact match against the stored token: a rotated-out token
// fails even though its signature and expiry are still good.
//
// Two concurrent refreshes with the same token can both pass the match
// check before either persists; the second write wins. Accepted
// weak-consistency property, not guarded by a lock.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	userID, err := s.issuer.Verify(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		s.metrics.TokenRefreshesTotal.WithLabelValues("invalid").Inc()
		return auth.TokenPair{}, err
	}

	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			s.metrics.TokenRefreshesTotal.WithLabelValues("invalid").Inc()
			return auth.TokenPair{}, auth.E(auth.CodeInvalidToken, "unknown user")
		}
		s.metrics.TokenRefreshesTotal.WithLabelValues("error").Inc()
		return auth.TokenPair{}, auth.Wrap(auth.CodeServer, "looking up user", err)
	}

	if user.RefreshToken == "" || user.RefreshToken != refreshToken {
		s.metrics.TokenRefreshesTotal.WithLabelValues("invalid").Inc()
		return auth.TokenPair{}, auth.E(auth.CodeInvalidToken, "refresh token does not match")
	}

	pair, err := s.issueAndPersist(ctx, user.ID)
	if err != nil {
		s.metrics.TokenRefreshesTotal.WithLabelValues("error").Inc()
		return auth.TokenPair{}, err
	}

	s.metrics.TokenRefreshesTotal.WithLabelValues("success").Inc()
	return pair, nil
}

// Logout invalidates the session. The blacklist write and the refresh-token
// clear are independent: a down cache never stops the local invalidation.
func (s *Service) Logout(ctx context.Context, session *auth.Session) error {
	if err := s.cache.BlacklistToken(ctx, session.Token, s.issuer.AccessTTL()); err != nil {
		s.cacheDegraded("blacklist_token", err)
	} else {
		s.metrics.TokensBlacklistedTotal.Inc()
	}

	if err := s.store.ClearRefreshToken(ctx, session.User.ID); err != nil && !errors.Is(err, users.ErrNotFound) {
		return auth.Wrap(auth.CodeServer, "clearing refresh token", err)
	}

	s.logger.WithField("user_id", session.User.ID).Info("user logged out")
	return nil
}

// ForgotPassword stores a hashed reset token on the account and mails the
// raw token. The response is identical whether or not the email exists.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			// Generic ack regardless; do not reveal account existence
			s.metrics.PasswordResetsTotal.WithLabelValues("forgot", "unknown_email").Inc()
			return nil
		}
		return auth.Wrap(auth.CodeServer, "looking up user", err)
	}

	token, tokenHash, err := auth.NewResetToken()
	if err != nil {
		return auth.Wrap(auth.CodeServer, "generating reset token", err)
	}

	expires := time.Now().Add(s.cfg.ResetTokenTTL)
	if err := s.store.SetResetToken(ctx, user.ID, tokenHash, expires); err != nil {
		return auth.Wrap(auth.CodeServer, "storing reset token", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, token); err != nil {
		// Delivery is best-effort; the token is already stored
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("reset mail delivery failed")
	}

	s.metrics.PasswordResetsTotal.WithLabelValues("forgot", "success").Inc()
	return nil
}

// ResetPassword consumes a reset token and sets the new password. The match
// and the password change happen in one atomic store update.
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	passwordHash, err := auth.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return auth.Wrap(auth.CodeServer, "hashing password", err)
	}

	user, err := s.store.ResetPassword(ctx, auth.HashResetToken(token), passwordHash)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			s.metrics.PasswordResetsTotal.WithLabelValues("reset", "invalid").Inc()
			return auth.E(auth.CodeResetTokenInvalid, "invalid or expired reset token")
		}
		s.metrics.PasswordResetsTotal.WithLabelValues("reset", "error").Inc()
		return auth.Wrap(auth.CodeServer, "resetting password", err)
	}

	if err := s.mailer.SendPasswordChanged(ctx, user.Email); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("password changed mail delivery failed")
	}

	s.metrics.PasswordResetsTotal.WithLabelValues("reset", "success").Inc()
	s.logger.WithField("user_id", user.ID).Info("password reset")
	return nil
}

// PurgeExpiredResetTokens is the scheduled cleanup entry point
func (s *Service) PurgeExpiredResetTokens(ctx context.Context) error {
	n, err := s.store.PurgeExpiredResetTokens(ctx)
	if err != nil {
		return fmt.Errorf("purging reset tokens: %w", err)
	}
	if n > 0 {
		s.logger.WithField("count", n).Info("purged expired reset tokens")
	}
	return nil
}

// issueAndPersist mints a pair and rotates the stored refresh token
func (s *Service) issueAndPersist(ctx context.Context, userID int64) (auth.TokenPair, error) {
	pair, err := s.issuer.Issue(userID)
	if err != nil {
		return auth.TokenPair{}, err
	}

	if err := s.store.SetRefreshToken(ctx, userID, pair.RefreshToken); err != nil {
		return auth.TokenPair{}, auth.Wrap(auth.CodeServer, "persisting refresh token", err)
	}

	return pair, nil
}

// cacheDegraded records a swallowed cache error. Cache failures degrade
// rate limiting and blacklisting; they are never user-visible.
func (s *Service) cacheDegraded(op string, err error) {
	s.metrics.CacheErrorsTotal.WithLabelValues(op).Inc()
	s.logger.WithError(err).WithField("operation", op).Warn("session cache unavailable, failing open")
}
