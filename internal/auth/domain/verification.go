package domain

import "time"

// VerificationToken models a stored single-use email verification token.
// Only the SHA-256 fingerprint of the opaque token is persisted; the
// plaintext is embedded in the verification link and never stored.
type VerificationToken struct {
	ID        string
	UserID    string
	TokenHash string // deterministic fingerprint (base64url SHA-256)
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token's TTL has elapsed at the given time.
func (t VerificationToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
