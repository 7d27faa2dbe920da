package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies an auth failure cause. Codes are kept distinct internally
// for logging and metrics even where the external surface is deliberately
// uniform (enumeration resistance).
type Code string

const (
	CodeValidation         Code = "validation_error"
	CodeAlreadyExists      Code = "already_exists"
	CodeInvalidCredentials Code = "invalid_credentials"
	CodeTooManyAttempts    Code = "too_many_attempts"
	CodeNoToken            Code = "no_token"
	CodeInvalidToken       Code = "invalid_token"
	CodeTokenExpired       Code = "token_expired"
	CodeTokenRevoked       Code = "token_revoked"
	CodeAccountInactive    Code = "account_inactive"
	CodeUserNotFound       Code = "user_not_found"
	CodeForbidden          Code = "forbidden"
	CodeResetTokenInvalid  Code = "invalid_or_expired_token"
	CodeServer             Code = "server_error"
)

// Error is a tagged auth error. The Code stays internal; the user-visible
// body comes from PublicMessage.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E creates a tagged error
func E(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a tagged error wrapping a cause
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// HTTPStatus maps the error code to a response status
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeValidation, CodeAlreadyExists, CodeResetTokenInvalid:
		return http.StatusBadRequest
	case CodeInvalidCredentials, CodeNoToken, CodeInvalidToken, CodeTokenExpired,
		CodeTokenRevoked, CodeAccountInactive, CodeUserNotFound:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeTooManyAttempts:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the user-facing message. Token failures past the
// "no token at all" case share one message so callers cannot probe which
// internal check rejected them.
func (e *Error) PublicMessage() string {
	switch e.Code {
	case CodeValidation, CodeAlreadyExists, CodeResetTokenInvalid:
		return e.Message
	case CodeInvalidCredentials:
		return "invalid email or password"
	case CodeTooManyAttempts:
		return "too many login attempts, please try again later"
	case CodeNoToken:
		return "missing authorization header"
	case CodeTokenExpired:
		return "token has expired"
	case CodeInvalidToken, CodeTokenRevoked, CodeAccountInactive, CodeUserNotFound:
		return "invalid or expired token"
	case CodeForbidden:
		return "insufficient permissions"
	default:
		return "internal server error"
	}
}

// CodeOf extracts the auth error code from err, or CodeServer when err is
// not a tagged auth error.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeServer
}

// IsCode reports whether err carries the given code
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// AsError converts any error to a tagged error, wrapping untagged errors as
// server errors (credential store failures are always fatal for the request).
func AsError(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Wrap(CodeServer, "internal error", err)
}
