package store

import (
	"context"
	"errors"

	"github.com/babili/authd/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement this.
// It exposes sub-repositories to keep concerns tidy and testable.
type Store interface {
	Users() Users
	VerificationTokens() VerificationTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail returns a user by email. Callers pass the address
	// lowercased; the unique index is case-insensitive regardless.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	// Returns ErrAlreadyExists when the email is taken, enforced by the
	// storage uniqueness constraint rather than a check-then-insert.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateProfile replaces first/last name and bumps updated_at.
	// Last writer wins; there is no optimistic version check.
	UpdateProfile(ctx context.Context, userID, firstName, lastName string) error

	// MarkEmailVerified sets the verified timestamp exactly once; a second
	// call leaves the original timestamp untouched.
	MarkEmailVerified(ctx context.Context, userID string) error

	// SetTwoFactorSecret stores a pending (or replacement) TOTP secret
	// without enabling 2FA.
	SetTwoFactorSecret(ctx context.Context, userID, secret string) error

	// EnableTwoFactor marks 2FA confirmed. It only applies when a secret is
	// stored and 2FA is not yet enabled; otherwise ErrNotFound is returned,
	// which also makes concurrent confirmations single-winner.
	EnableTwoFactor(ctx context.Context, userID string) error

	// DisableTwoFactor clears both the enabled timestamp and the secret in
	// one atomic update. ErrNotFound when 2FA was not enabled.
	DisableTwoFactor(ctx context.Context, userID string) error

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

// VerificationTokens persists single-use email verification tokens. The
// sqlite repo implements it inside the main store; a redis driver implements
// it standalone with native TTL semantics.
type VerificationTokens interface {
	// CreateVerificationToken stores a new token record. Callers delete any
	// prior token for the same user first so at most one is live.
	CreateVerificationToken(ctx context.Context, t domain.VerificationToken) error

	// ConsumeVerificationToken atomically removes the token by fingerprint
	// and returns it. Exactly one of any set of concurrent callers gets the
	// record; the rest get ErrNotFound.
	ConsumeVerificationToken(ctx context.Context, tokenHash string) (domain.VerificationToken, error)

	// DeleteVerificationTokensForUser removes any live token owned by the user.
	DeleteVerificationTokensForUser(ctx context.Context, userID string) error

	// DeleteExpiredVerificationTokens is housekeeping. Drivers with native
	// key expiry may implement it as a no-op.
	DeleteExpiredVerificationTokens(ctx context.Context) error
}
