// Package api exposes the authentication flows over HTTP. Routes live under
// /api/v1 behind a shared middleware chain; probes and metrics sit outside
// it at /healthz, /readyz, and /metrics.
package api
