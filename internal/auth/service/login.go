package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/babili/authd/internal/auth/domain"
	"github.com/babili/authd/internal/auth/store"
	"github.com/babili/authd/pkg/cryptox"
	"github.com/babili/authd/pkg/jwtx"
	"github.com/babili/authd/pkg/totpx"
)

var (
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrEmailNotVerified     = errors.New("email address not verified")
	ErrTwoFactorRequired    = errors.New("two-factor code required")
	ErrInvalidTwoFactorCode = errors.New("invalid two-factor code")
)

// LoginService authenticates credentials and mints access tokens.
type LoginService struct {
	Store     store.Store
	Signer    jwtx.Signer
	Issuer    string
	AccessTTL time.Duration
}

func (s *LoginService) accessTTL() time.Duration {
	if s.AccessTTL <= 0 {
		return jwtx.DefaultAccessTokenTTL
	}
	return s.AccessTTL
}

// Login runs the full credential check. The gates run in a fixed order:
// account lookup, email verification, password, then the TOTP gate for
// accounts with two-factor enabled. totpCode may be empty; it is only
// consulted when the account requires it.
//
// An unknown email and a wrong password both map to
// ErrInvalidCredentials. A correct password on an unverified account
// reports ErrEmailNotVerified so clients can offer a resend.
func (s *LoginService) Login(ctx context.Context, emailAddr, password, totpCode string) (domain.AuthResponse, error) {
	user, err := s.Store.Users().GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(emailAddr)))
	if errors.Is(err, store.ErrNotFound) {
		return domain.AuthResponse{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.AuthResponse{}, fmt.Errorf("failed to look up user: %w", err)
	}

	if !user.IsEmailVerified() {
		return domain.AuthResponse{}, ErrEmailNotVerified
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return domain.AuthResponse{}, ErrInvalidCredentials
		}
		return domain.AuthResponse{}, fmt.Errorf("failed to verify password: %w", err)
	}

	if user.IsTwoFactorEnabled() {
		if totpCode == "" {
			return domain.AuthResponse{}, ErrTwoFactorRequired
		}
		if !totpx.Validate(totpCode, *user.TwoFactorSecret) {
			return domain.AuthResponse{}, ErrInvalidTwoFactorCode
		}
	}

	claims := jwtx.NewAccessClaims(user.ID, user.Email, user.Role, s.Issuer, s.accessTTL(), time.Now().UTC())
	token, err := s.Signer.Sign(claims)
	if err != nil {
		return domain.AuthResponse{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	return domain.AuthResponse{
		Token:            token,
		Email:            user.Email,
		FirstName:        user.FirstName,
		LastName:         user.LastName,
		EmailVerified:    user.IsEmailVerified(),
		TwoFactorEnabled: user.IsTwoFactorEnabled(),
	}, nil
}
