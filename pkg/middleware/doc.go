// Package middleware provides the session guard and role enforcement for
// protected HTTP routes.
package middleware
