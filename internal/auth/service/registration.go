package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/babili/authd/internal/auth/domain"
	"github.com/babili/authd/internal/auth/store"
	"github.com/babili/authd/pkg/cryptox"
	"github.com/babili/authd/pkg/idx"
)

// DefaultRole is assigned to self-registered accounts.
const DefaultRole = "user"

// RegistrationService creates accounts and kicks off email verification.
type RegistrationService struct {
	Store        store.Store
	Verification *VerificationService
}

type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates a new unverified account and sends the verification
// email. Email addresses are case-insensitive; the stored form is
// lowercased. Returns store.ErrAlreadyExists when the address is taken.
//
// When the account is created but the verification mail cannot be sent,
// the user is returned together with an error wrapping ErrDeliveryFailed
// so callers can report partial success.
func (s *RegistrationService) Register(ctx context.Context, p RegisterParams) (domain.User, error) {
	hash, err := cryptox.HashPassword(p.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           idx.New().String(),
		Email:        strings.ToLower(strings.TrimSpace(p.Email)),
		FirstName:    strings.TrimSpace(p.FirstName),
		LastName:     strings.TrimSpace(p.LastName),
		PasswordHash: hash,
		Role:         DefaultRole,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		return domain.User{}, err
	}

	if err := s.Verification.Issue(ctx, user); err != nil {
		// Account exists either way; surface the delivery problem.
		return user, err
	}
	return user, nil
}
