package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/babili/authd/internal/auth/domain"
	"github.com/babili/authd/internal/auth/email"
	"github.com/babili/authd/internal/auth/store"
	"github.com/babili/authd/pkg/cryptox"
	"github.com/babili/authd/pkg/idx"
)

// DefaultVerificationTTL is how long an email verification link stays valid.
const DefaultVerificationTTL = 24 * time.Hour

var (
	ErrAlreadyVerified = errors.New("email already verified")
	ErrDeliveryFailed  = errors.New("verification email delivery failed")
)

// VerificationService issues and redeems email verification tokens.
// Tokens optionally overrides the Store's own token repo with a
// standalone backend (e.g. redis); when unset, token writes share the
// Store's transactions.
type VerificationService struct {
	Store  store.Store
	Tokens store.VerificationTokens
	Mailer email.Sender

	AppName     string
	FrontendURL string
	TokenTTL    time.Duration
}

func (s *VerificationService) tokens() store.VerificationTokens {
	if s.Tokens != nil {
		return s.Tokens
	}
	return s.Store.VerificationTokens()
}

func (s *VerificationService) ttl() time.Duration {
	if s.TokenTTL <= 0 {
		return DefaultVerificationTTL
	}
	return s.TokenTTL
}

// Issue creates a fresh verification token for the user and mails the
// verification link. Any previously issued token for the user is
// invalidated first, so at most one link works at a time.
//
// If the mail cannot be delivered the token is kept so a later resend
// can succeed without re-registration; the returned error wraps
// ErrDeliveryFailed.
func (s *VerificationService) Issue(ctx context.Context, user domain.User) error {
	token := uuid.NewString()
	rec := domain.VerificationToken{
		ID:        idx.New().String(),
		UserID:    user.ID,
		TokenHash: cryptox.FingerprintToken(token),
		ExpiresAt: time.Now().UTC().Add(s.ttl()),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.replaceToken(ctx, rec); err != nil {
		return fmt.Errorf("failed to store verification token: %w", err)
	}

	link := s.verificationLink(token)
	subject := fmt.Sprintf("Verify your %s account", s.AppName)
	body := fmt.Sprintf(
		"Hi %s,\n\nPlease confirm your email address by opening the link below:\n\n%s\n\nThe link expires in %s. If you did not create this account you can ignore this message.\n",
		user.FirstName, link, s.ttl(),
	)

	if err := s.Mailer.Send(ctx, user.Email, subject, body); err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return nil
}

// replaceToken invalidates any prior token for the user and stores the new
// one. Replacement is two statements, so on the Store-backed path both run
// in one transaction; concurrent resends would otherwise collide on the
// per-user uniqueness index. Standalone backends handle replacement
// themselves (redis swaps the per-user key inside CreateVerificationToken).
func (s *VerificationService) replaceToken(ctx context.Context, rec domain.VerificationToken) error {
	if s.Tokens != nil {
		if err := s.Tokens.DeleteVerificationTokensForUser(ctx, rec.UserID); err != nil {
			return err
		}
		return s.Tokens.CreateVerificationToken(ctx, rec)
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		tokens := tx.VerificationTokens()
		if err := tokens.DeleteVerificationTokensForUser(ctx, rec.UserID); err != nil {
			return err
		}
		return tokens.CreateVerificationToken(ctx, rec)
	})
}

// Redeem consumes a verification token and marks the owning user's
// email as verified. It returns false when the token is unknown, was
// already used, or has expired; the three cases are indistinguishable
// to the caller on purpose.
func (s *VerificationService) Redeem(ctx context.Context, token string) (bool, error) {
	rec, err := s.tokens().ConsumeVerificationToken(ctx, cryptox.FingerprintToken(token))
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to consume verification token: %w", err)
	}

	// Consuming always removes the token, so an expired one cannot be
	// retried either.
	if rec.Expired(time.Now().UTC()) {
		return false, nil
	}

	if err := s.Store.Users().MarkEmailVerified(ctx, rec.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// User deleted between issue and redeem.
			return false, nil
		}
		return false, fmt.Errorf("failed to mark email verified: %w", err)
	}
	return true, nil
}

// Resend issues a new verification link for the given email address.
// Returns store.ErrNotFound when no such user exists and
// ErrAlreadyVerified when there is nothing left to verify.
func (s *VerificationService) Resend(ctx context.Context, emailAddr string) error {
	user, err := s.Store.Users().GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(emailAddr)))
	if err != nil {
		return err
	}
	if user.IsEmailVerified() {
		return ErrAlreadyVerified
	}
	return s.Issue(ctx, user)
}

func (s *VerificationService) verificationLink(token string) string {
	return s.FrontendURL + "/verify-email?token=" + url.QueryEscape(token)
}
