package middleware

import (
	"errors"
	"net/http"

	"github.com/pathfinders/auth-service/pkg/auth"
	"github.com/pathfinders/auth-service/pkg/cache"
	"github.com/pathfinders/auth-service/pkg/contextkeys"
	"github.com/pathfinders/auth-service/pkg/httputil"
	"github.com/pathfinders/auth-service/pkg/observability"
	"github.com/pathfinders/auth-service/pkg/users"
)

// SessionGuard authenticates requests on protected routes. A request passes
// when it carries a bearer token that verifies as an access token, is not
// blacklisted, and maps to an active account. The blacklist check fails
// open: a down cache degrades revocation, it never locks users out.
type SessionGuard struct {
	issuer  *auth.TokenIssuer
	store   users.Store
	cache   cache.SessionCache
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewSessionGuard creates the session guard middleware
func NewSessionGuard(
	issuer *auth.TokenIssuer,
	store users.Store,
	sessionCache cache.SessionCache,
	logger *observability.Logger,
	metrics *observability.Metrics,
) *SessionGuard {
	return &SessionGuard{
		issuer:  issuer,
		store:   store,
		cache:   sessionCache,
		logger:  logger,
		metrics: metrics,
	}
}

// Handler wraps the next handler with session authentication
func (g *SessionGuard) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := g.authenticate(r)
		if err != nil {
			g.metrics.TokenValidationsTotal.WithLabelValues(string(auth.CodeOf(err))).Inc()
			httputil.WriteAuthError(w, err)
			return
		}

		g.metrics.TokenValidationsTotal.WithLabelValues("success").Inc()
		next.ServeHTTP(w, r.WithContext(contextkeys.WithSession(r.Context(), session)))
	})
}

func (g *SessionGuard) authenticate(r *http.Request) (*auth.Session, error) {
	token, ok := httputil.BearerToken(r)
	if !ok {
		return nil, auth.E(auth.CodeNoToken, "missing bearer token")
	}

	userID, err := g.issuer.Verify(token, auth.TokenTypeAccess)
	if err != nil {
		return nil, err
	}

	blacklisted, err := g.cache.IsTokenBlacklisted(r.Context(), token)
	if err != nil {
		g.metrics.CacheErrorsTotal.WithLabelValues("is_token_blacklisted").Inc()
		g.logger.WithError(err).Warn("blacklist check unavailable, failing open")
	} else if blacklisted {
		return nil, auth.E(auth.CodeTokenRevoked, "token has been revoked")
	}

	user, err := g.store.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, auth.E(auth.CodeUserNotFound, "token subject no longer exists")
		}
		return nil, auth.Wrap(auth.CodeServer, "looking up token subject", err)
	}

	if user.Status != auth.StatusActive {
		return nil, auth.E(auth.CodeAccountInactive, "account is not active")
	}

	// Activity tracking is advisory; a failed write never rejects the request
	if err := g.store.TouchLastActive(r.Context(), user.ID); err != nil {
		g.logger.WithError(err).WithField("user_id", user.ID).Warn("failed to record last activity")
	}

	return &auth.Session{User: user, Token: token}, nil
}

// RequireRole restricts a route to the given roles. It must run after the
// session guard; an absent session is treated as a server misconfiguration.
func RequireRole(roles ...auth.Role) func(http.Handler) http.Handler {
	allowed := make(map[auth.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := GetSession(r)
			if session == nil {
				httputil.WriteInternalError(w, errors.New("role check without session guard"))
				return
			}

			if _, ok := allowed[session.User.Role]; !ok {
				httputil.WriteAuthError(w, auth.E(auth.CodeForbidden, "insufficient permissions"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetSession returns the authenticated session from the request context, or
// nil on unguarded routes.
func GetSession(r *http.Request) *auth.Session {
	session, _ := r.Context().Value(contextkeys.SessionKey).(*auth.Session)
	return session
}
