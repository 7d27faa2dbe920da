package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer() *TokenIssuer {
	return NewTokenIssuer([]byte("test-secret"), time.Hour, 7*24*time.Hour)
}

func TestTokenIssuer_IssueAndVerify(t *testing.T) {
	issuer := newTestIssuer()

	pair, err := issuer.Issue(42)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	userID, err := issuer.Verify(pair.AccessToken, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)

	userID, err = issuer.Verify(pair.RefreshToken, TokenTypeRefresh)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestTokenIssuer_Verify_TypeMismatch(t *testing.T) {
	issuer := newTestIssuer()

	pair, err := issuer.Issue(7)
	require.NoError(t, err)

	// An access token must not pass as a refresh token, and vice versa
	_, err = issuer.Verify(pair.AccessToken, TokenTypeRefresh)
	assert.True(t, IsCode(err, CodeInvalidToken))

	_, err = issuer.Verify(pair.RefreshToken, TokenTypeAccess)
	assert.True(t, IsCode(err, CodeInvalidToken))
}

func TestTokenIssuer_Verify_Expired(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"), -time.Minute, -time.Minute)

	pair, err := issuer.Issue(7)
	require.NoError(t, err)

	_, err = issuer.Verify(pair.AccessToken, TokenTypeAccess)
	assert.True(t, IsCode(err, CodeTokenExpired))
}

func TestTokenIssuer_Verify_WrongSecret(t *testing.T) {
	pair, err := newTestIssuer().Issue(7)
	require.NoError(t, err)

	other := NewTokenIssuer([]byte("different-secret"), time.Hour, 7*24*time.Hour)
	_, err = other.Verify(pair.AccessToken, TokenTypeAccess)
	assert.True(t, IsCode(err, CodeInvalidToken))
}

func TestTokenIssuer_Verify_Garbage(t *testing.T) {
	issuer := newTestIssuer()

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := issuer.Verify(token, TokenTypeAccess)
		assert.True(t, IsCode(err, CodeInvalidToken), "token %q", token)
	}
}
