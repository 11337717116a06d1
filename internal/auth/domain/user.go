package domain

import "time"

type User struct {
	ID           string
	Email        string // stored lowercase, unique
	FirstName    string
	LastName     string
	PasswordHash string // argon2 encoded
	Role         string // single authority, e.g. "user"

	EmailVerified    *time.Time // when the address was verified (nullable)
	TwoFactorEnabled *time.Time // when 2FA was confirmed (nullable)
	TwoFactorSecret  *string    // TOTP secret (nullable, base32 encoded)

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsEmailVerified reports whether the user has completed email verification.
func (u User) IsEmailVerified() bool { return u.EmailVerified != nil }

// IsTwoFactorEnabled reports whether 2FA has been confirmed. A stored secret
// with a nil enabled timestamp means setup is pending, not enabled.
func (u User) IsTwoFactorEnabled() bool { return u.TwoFactorEnabled != nil }

// HasTwoFactorSecret reports whether a secret is stored (pending or enabled).
func (u User) HasTwoFactorSecret() bool {
	return u.TwoFactorSecret != nil && *u.TwoFactorSecret != ""
}
