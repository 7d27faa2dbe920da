package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResetToken(t *testing.T) {
	token, hash, err := NewResetToken()
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// sha256 hex digest
	assert.Len(t, hash, 64)
	assert.NotContains(t, hash, token)

	// The stored hash must be recomputable from the raw token
	assert.Equal(t, hash, HashResetToken(token))
}

func TestNewResetToken_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, _, err := NewResetToken()
		require.NoError(t, err)
		require.False(t, seen[token], "duplicate reset token")
		seen[token] = true
	}
}
