// Package users is the credential store: persisted user records with their
// password hashes, refresh tokens, account status, and password-reset state.
//
// All mutations the auth flows depend on (refresh token rotation, reset
// token consumption) are single-row UPDATEs, relying on Postgres row-level
// atomicity rather than application locks.
package users
