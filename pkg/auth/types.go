package auth

import "time"

// Status is the lifecycle state of an account. Only active accounts may
// authenticate.
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

// Valid reports whether s is a known account status
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended:
		return true
	}
	return false
}

// Role is the authorization role of an account
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is a credential store record. Secret fields carry `json:"-"` so a
// marshalled User is already the sanitized view returned to clients.
type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Name         string     `json:"name"`
	MobileNumber string     `json:"mobile_number,omitempty"`
	DateOfBirth  *time.Time `json:"date_of_birth,omitempty"`
	Gender       string     `json:"gender,omitempty"`
	Location     string     `json:"location,omitempty"`
	Role         Role       `json:"role"`
	Status       Status     `json:"status"`

	// RefreshToken is the single currently valid refresh token for this
	// user. Overwritten on every login/refresh, cleared on logout.
	RefreshToken string `json:"-"`

	// ResetTokenHash is the sha256 hex of the outstanding password reset
	// token; the raw token is never stored.
	ResetTokenHash    string     `json:"-"`
	ResetTokenExpires *time.Time `json:"-"`

	LastActive *time.Time `json:"last_active,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TokenPair is an access/refresh token pair. Only the refresh half is ever
// persisted (on the user record).
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Session is the authenticated request context produced by the session
// guard. Token holds the raw bearer string so logout can blacklist it.
type Session struct {
	User  *User
	Token string
}
