package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// Country code (1-3 digits, no leading zero) followed by a 9-digit
	// subscriber number.
	phonePattern = regexp.MustCompile(`^\+[1-9][0-9]{0,2}[0-9]{9}$`)
)

// NormalizeEmail lowercases and trims an email address. Lookups are
// case-insensitive, so emails are normalized once at the boundary.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks basic email shape
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

// ValidatePassword enforces the password policy: minimum 8 characters with
// at least one digit, one uppercase, one lowercase, and one symbol.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	var hasDigit, hasUpper, hasLower, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}

	switch {
	case !hasDigit:
		return fmt.Errorf("password must contain at least one digit")
	case !hasUpper:
		return fmt.Errorf("password must contain at least one uppercase letter")
	case !hasLower:
		return fmt.Errorf("password must contain at least one lowercase letter")
	case !hasSymbol:
		return fmt.Errorf("password must contain at least one symbol")
	}

	return nil
}

// ValidatePhone checks the regional mobile number format
// (+<country code><9 digits>).
func ValidatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return fmt.Errorf("mobile number must match +<country code><9 digits>")
	}
	return nil
}
