package domain

import "time"

// User is a resource owner the reference server can authenticate for the
// password and OTP grants.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	TOTPSecret   *string // nil when the user has not enrolled an authenticator
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
