package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/babili/authd/internal/auth/domain"
	"github.com/babili/authd/internal/auth/store"
	"github.com/babili/authd/pkg/totpx"
)

var (
	ErrTwoFactorAlreadyEnabled = errors.New("two-factor already enabled for this user")
	ErrTwoFactorNotEnabled     = errors.New("two-factor not enabled for this user")
	ErrSetupNotInitiated       = errors.New("two-factor setup not initiated")
	ErrInvalidCode             = errors.New("invalid TOTP code")
)

// QRCodeSize is the pixel width and height of generated provisioning images.
const QRCodeSize = 200

// TwoFactorService manages the TOTP enrolment lifecycle: setup stores a
// pending secret, confirm verifies a code and flips the enabled flag,
// disable clears both.
type TwoFactorService struct {
	Store  store.Store
	Issuer string // Issuer name shown in authenticator apps
}

// Setup generates a fresh TOTP secret for the user and stores it as
// pending. Calling it again before confirmation replaces the pending
// secret, so the newest provisioning URI is always the one that counts.
func (s *TwoFactorService) Setup(ctx context.Context, userID string) (domain.TwoFactorSetupResponse, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.TwoFactorSetupResponse{}, err
	}
	if user.IsTwoFactorEnabled() {
		return domain.TwoFactorSetupResponse{}, ErrTwoFactorAlreadyEnabled
	}

	secret, err := totpx.GenerateSecret()
	if err != nil {
		return domain.TwoFactorSetupResponse{}, fmt.Errorf("failed to generate TOTP secret: %w", err)
	}

	if err := s.Store.Users().SetTwoFactorSecret(ctx, userID, secret); err != nil {
		return domain.TwoFactorSetupResponse{}, fmt.Errorf("failed to store TOTP secret: %w", err)
	}

	return domain.TwoFactorSetupResponse{
		Secret:          secret,
		ProvisioningURI: totpx.ProvisioningURI(secret, user.Email, s.Issuer),
		Issuer:          s.Issuer,
		Account:         user.Email,
	}, nil
}

// ConfirmSetup verifies a code against the pending secret and enables
// two-factor. Only one confirmation can win; a concurrent duplicate
// gets ErrTwoFactorAlreadyEnabled.
func (s *TwoFactorService) ConfirmSetup(ctx context.Context, userID, code string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsTwoFactorEnabled() {
		return ErrTwoFactorAlreadyEnabled
	}
	if !user.HasTwoFactorSecret() {
		return ErrSetupNotInitiated
	}

	if !totpx.Validate(code, *user.TwoFactorSecret) {
		return ErrInvalidCode
	}

	err = s.Store.Users().EnableTwoFactor(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		// The guarded update matched no row: either a concurrent confirm
		// already enabled, or the secret was cleared underneath us.
		latest, lookupErr := s.Store.Users().GetUserByID(ctx, userID)
		if lookupErr == nil && latest.IsTwoFactorEnabled() {
			return ErrTwoFactorAlreadyEnabled
		}
		return ErrSetupNotInitiated
	}
	return err
}

// Disable turns two-factor off after verifying a current code.
func (s *TwoFactorService) Disable(ctx context.Context, userID, code string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.IsTwoFactorEnabled() {
		return ErrTwoFactorNotEnabled
	}

	if !totpx.Validate(code, *user.TwoFactorSecret) {
		return ErrInvalidCode
	}

	err = s.Store.Users().DisableTwoFactor(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		// Already disabled by a concurrent request.
		return ErrTwoFactorNotEnabled
	}
	return err
}

// ProvisioningImage renders the user's pending or active secret as a
// QR code PNG suitable for scanning with an authenticator app.
func (s *TwoFactorService) ProvisioningImage(ctx context.Context, userID string) ([]byte, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.HasTwoFactorSecret() {
		return nil, ErrSetupNotInitiated
	}

	uri := totpx.ProvisioningURI(*user.TwoFactorSecret, user.Email, s.Issuer)
	png, err := totpx.Image(uri, QRCodeSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}
	return png, nil
}
