// Package observability provides structured logging, Prometheus metrics,
// and dependency health checks for the auth service.
//
// The logger is a thin wrapper over log/slog emitting JSON. Metrics cover
// the HTTP surface, auth flow outcomes, and swallowed cache errors (the
// revocation/rate-limit cache is best-effort, so its failures are visible
// only here and in logs). Health checks treat the credential store as
// required and the cache as optional.
package observability
