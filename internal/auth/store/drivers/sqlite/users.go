package sqlite

import (
	"context"
	"time"

	"github.com/babili/authd/internal/auth/domain"
	"github.com/babili/authd/internal/auth/store"
)

const userColumns = `id, email, first_name, last_name, password_hash, role,
	email_verified, two_factor_enabled, two_factor_secret, created_at, updated_at`

type usersRepo struct {
	db dbtx
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	// The email column collates NOCASE, so this match is case-insensitive.
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)

	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, first_name, last_name, password_hash, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.Role, now, now)
	if err != nil {
		return mapConflict(err)
	}
	return nil
}

func (r *usersRepo) UpdateProfile(ctx context.Context, userID, firstName, lastName string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET first_name = ?, last_name = ?, updated_at = ? WHERE id = ?`,
		firstName, lastName, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) MarkEmailVerified(ctx context.Context, userID string) error {
	// COALESCE keeps the original timestamp if the flag was already set, so
	// verification happens exactly once.
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET email_verified = COALESCE(email_verified, ?), updated_at = ? WHERE id = ?`,
		now, now, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) SetTwoFactorSecret(ctx context.Context, userID, secret string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET two_factor_secret = ?, updated_at = ? WHERE id = ?`,
		secret, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) EnableTwoFactor(ctx context.Context, userID string) error {
	// The guard makes concurrent confirmations single-winner: only the
	// pending-secret state matches, and the first update consumes it.
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET two_factor_enabled = ?, updated_at = ?
		 WHERE id = ? AND two_factor_secret IS NOT NULL AND two_factor_enabled IS NULL`,
		now, now, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) DisableTwoFactor(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET two_factor_enabled = NULL, two_factor_secret = NULL, updated_at = ?
		 WHERE id = ? AND two_factor_enabled IS NOT NULL`,
		time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}

// requireRow converts a zero-row update into store.ErrNotFound.
func requireRow(res interface{ RowsAffected() (int64, error) }) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
