package sqlite

import (
	"context"
	"time"

	"github.com/babili/authd/internal/auth/domain"
)

type verificationTokensRepo struct {
	db dbtx
}

func (r *verificationTokensRepo) CreateVerificationToken(ctx context.Context, t domain.VerificationToken) error {
	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO email_verification_tokens (id, user_id, token_hash, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.TokenHash, t.ExpiresAt.UTC(), createdAt)
	if err != nil {
		return mapConflict(err)
	}
	return nil
}

func (r *verificationTokensRepo) ConsumeVerificationToken(ctx context.Context, tokenHash string) (domain.VerificationToken, error) {
	// DELETE ... RETURNING makes redemption single-winner: of any set of
	// concurrent callers exactly one sees the row, the rest get no rows.
	row := r.db.QueryRowContext(ctx,
		`DELETE FROM email_verification_tokens WHERE token_hash = ?
		 RETURNING id, user_id, token_hash, expires_at, created_at`,
		tokenHash)

	var t domain.VerificationToken
	if err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt); err != nil {
		return domain.VerificationToken{}, mapNotFound(err)
	}
	return t, nil
}

func (r *verificationTokensRepo) DeleteVerificationTokensForUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM email_verification_tokens WHERE user_id = ?`, userID)
	return err
}

func (r *verificationTokensRepo) DeleteExpiredVerificationTokens(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM email_verification_tokens WHERE expires_at <= ?`, time.Now().UTC())
	return err
}
