package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/babili/authd/internal/auth/store"
	"github.com/babili/authd/pkg/cryptox"
)

func TestRegisterCreatesUnverifiedAccountAndSendsMail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.registration.Register(ctx, RegisterParams{
		Email:     "Alice@Example.COM",
		Password:  "hunter2hunter2",
		FirstName: " Alice ",
		LastName:  "Smith",
	})
	require.NoError(t, err)

	// Stored form is lowercased and trimmed.
	require.Equal(t, "alice@example.com", user.Email)
	require.Equal(t, "Alice", user.FirstName)
	require.Equal(t, DefaultRole, user.Role)
	require.False(t, user.IsEmailVerified())

	stored, err := env.store.Users().GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.Nil(t, stored.EmailVerified)
	require.NoError(t, cryptox.VerifyPassword("hunter2hunter2", stored.PasswordHash))

	require.Equal(t, 1, env.mailer.count())
	mail := env.mailer.last(t)
	require.Equal(t, "alice@example.com", mail.To)
	require.Contains(t, mail.Body, "verify-email?token=")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "alice@example.com")

	_, err := env.registration.Register(ctx, RegisterParams{
		Email:     "ALICE@example.com",
		Password:  "hunter2hunter2",
		FirstName: "Mallory",
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestRegisterSurvivesDeliveryFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.mailer.setFail(true)
	user, err := env.registration.Register(ctx, RegisterParams{
		Email:     "alice@example.com",
		Password:  "hunter2hunter2",
		FirstName: "Alice",
	})
	require.ErrorIs(t, err, ErrDeliveryFailed)
	require.NotEmpty(t, user.ID)

	// The account exists and a later resend succeeds.
	_, err = env.store.Users().GetUserByID(ctx, user.ID)
	require.NoError(t, err)

	env.mailer.setFail(false)
	require.NoError(t, env.verification.Resend(ctx, "alice@example.com"))

	ok, err := env.verification.Redeem(ctx, env.mailer.lastToken(t))
	require.NoError(t, err)
	require.True(t, ok)
}
