// Package cache provides the optional revocation/rate-limit store: a
// best-effort key-value cache holding blacklisted access tokens and
// failed-login counters.
//
// The cache is a capability, not a requirement. It is passed explicitly to
// the login flow and the session guard as the SessionCache interface, with
// NoopCache standing in when no backend is configured. Nothing in the
// service treats a cache error as fatal.
package cache
