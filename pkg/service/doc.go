// Package service implements the login, refresh, logout, and password reset
// flows. It owns the fail-open/fail-closed split: credential store errors
// are fatal for the request, session cache errors are swallowed, logged,
// and counted.
package service
