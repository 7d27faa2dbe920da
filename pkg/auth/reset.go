package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// resetTokenLength is the number of random bytes in a reset token (256 bits)
const resetTokenLength = 32

// NewResetToken generates a high-entropy password reset token and the sha256
// hash stored in its place. The raw token is returned once, for delivery,
// and never persisted.
func NewResetToken() (token string, tokenHash string, err error) {
	randomBytes := make([]byte, resetTokenLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", fmt.Errorf("generating reset token: %w", err)
	}

	token = base64.RawURLEncoding.EncodeToString(randomBytes)
	return token, HashResetToken(token), nil
}

// HashResetToken computes the sha256 hex of a reset token for lookup
func HashResetToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
