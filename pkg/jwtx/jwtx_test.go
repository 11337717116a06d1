package jwtx

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	signer, err := NewEphemeralSigner("test-1")
	require.NoError(t, err)
	require.NoError(t, signer.Validate())

	claims := NewAccessClaims("user-123", "alice@example.com", "user", "test-issuer", time.Hour, time.Now().UTC())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	verifier := NewVerifierEdDSA(signer.VerificationKeys(), "test-issuer")
	got, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-123", got.Subject)
	require.Equal(t, "alice@example.com", got.Email)
	require.Equal(t, "user", got.Role)
	require.Equal(t, "test-issuer", got.Issuer)
	require.NotEmpty(t, got.ID)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	signer, err := NewEphemeralSigner("test-1")
	require.NoError(t, err)

	claims := NewAccessClaims("user-123", "a@b.c", "user", "test-issuer", time.Minute, time.Now().UTC().Add(-2*time.Hour))
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	verifier := NewVerifierEdDSA(signer.VerificationKeys(), "test-issuer")
	_, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	t.Parallel()

	signer, err := NewEphemeralSigner("test-1")
	require.NoError(t, err)

	claims := NewAccessClaims("user-123", "a@b.c", "user", "other-issuer", time.Hour, time.Now().UTC())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	verifier := NewVerifierEdDSA(signer.VerificationKeys(), "test-issuer")
	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrIssuer)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	t.Parallel()

	signer, err := NewEphemeralSigner("test-1")
	require.NoError(t, err)

	claims := NewAccessClaims("user-123", "a@b.c", "user", "test-issuer", time.Hour, time.Now().UTC())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	verifier := NewVerifierEdDSA(signer.VerificationKeys(), "test-issuer")
	_, err = verifier.Verify(tampered)
	require.Error(t, err)
}

func TestVerifyRejectsUnknownKID(t *testing.T) {
	t.Parallel()

	signer, err := NewEphemeralSigner("kid-a")
	require.NoError(t, err)
	other, err := NewEphemeralSigner("kid-b")
	require.NoError(t, err)

	claims := NewAccessClaims("user-123", "a@b.c", "user", "test-issuer", time.Hour, time.Now().UTC())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	// Verifier only knows the other signer's key.
	verifier := NewVerifierEdDSA(other.VerificationKeys(), "test-issuer")
	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrUnknownKID)
}

func TestValidateExpiry(t *testing.T) {
	t.Parallel()

	valid := NewAccessClaims("u", "e", "r", "i", time.Hour, time.Now().UTC())
	require.NoError(t, valid.ValidateExpiry())

	expired := NewAccessClaims("u", "e", "r", "i", time.Minute, time.Now().UTC().Add(-time.Hour))
	require.ErrorIs(t, expired.ValidateExpiry(), ErrExpired)

	future := NewAccessClaims("u", "e", "r", "i", time.Hour, time.Now().UTC().Add(time.Hour))
	require.ErrorIs(t, future.ValidateExpiry(), ErrNotYetValid)
}
