package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType distinguishes the two halves of a pair. Both are signed with
// the same secret, so the claim prevents a refresh token from being replayed
// as an access token or vice versa.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the JWT claims carried by both token types
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"token_type"`
}

// TokenIssuer mints and verifies signed access/refresh token pairs. Issuance
// is a pure function of user ID, server time, and the secret; it has no side
// effects and no storage dependency.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenIssuer creates a token issuer with independent expirations for the
// access (short) and refresh (long) halves.
func NewTokenIssuer(secret []byte, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// AccessTTL returns the configured access-token lifetime. Logout uses it as
// the blacklist TTL, which never under-blacklists.
func (i *TokenIssuer) AccessTTL() time.Duration {
	return i.accessTTL
}

// RefreshTTL returns the configured refresh-token lifetime
func (i *TokenIssuer) RefreshTTL() time.Duration {
	return i.refreshTTL
}

// Issue mints a new access/refresh pair for the user
func (i *TokenIssuer) Issue(userID int64) (TokenPair, error) {
	access, err := i.sign(userID, TokenTypeAccess, i.accessTTL)
	if err != nil {
		return TokenPair{}, Wrap(CodeServer, "signing access token", err)
	}

	refresh, err := i.sign(userID, TokenTypeRefresh, i.refreshTTL)
	if err != nil {
		return TokenPair{}, Wrap(CodeServer, "signing refresh token", err)
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (i *TokenIssuer) sign(userID int64, typ TokenType, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: typ,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Verify checks signature, expiry, and token type, returning the user ID
// named in the subject claim. Expired tokens are reported distinctly from
// malformed or tampered ones.
func (i *TokenIssuer) Verify(tokenString string, typ TokenType) (int64, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, Wrap(CodeTokenExpired, "token expired", err)
		}
		return 0, Wrap(CodeInvalidToken, "token verification failed", err)
	}

	if !token.Valid || claims.TokenType != typ {
		return 0, E(CodeInvalidToken, "wrong token type")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, Wrap(CodeInvalidToken, "malformed subject claim", err)
	}

	return userID, nil
}
