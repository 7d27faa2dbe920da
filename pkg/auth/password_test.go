package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("Sup3rSecret!", 4)
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "Sup3rSecret!", hash)

	assert.True(t, CheckPassword(hash, "Sup3rSecret!"))
	assert.False(t, CheckPassword(hash, "sup3rsecret!"))
	assert.False(t, CheckPassword(hash, ""))
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	h1, err := HashPassword("Sup3rSecret!", 4)
	require.NoError(t, err)
	h2, err := HashPassword("Sup3rSecret!", 4)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestCheckPassword_NotAHash(t *testing.T) {
	assert.False(t, CheckPassword("plaintext", "plaintext"))
}
