// Package auth holds the authentication domain: user and session types, the
// tagged error taxonomy, the JWT token issuer, and password/reset-token
// hashing primitives.
//
// Access and refresh tokens are signed with the same secret but carry
// independent expirations and a token_type claim. Passwords are stored only
// as bcrypt hashes; reset tokens only as sha256 hashes.
package auth
