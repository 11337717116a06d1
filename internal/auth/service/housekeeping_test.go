package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/babili/authd/internal/auth/domain"
	"github.com/babili/authd/internal/auth/store"
	"github.com/babili/authd/pkg/idx"
)

func TestHousekeepingRemovesExpiredTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	userID := env.register(t, "alice@example.com")
	require.NoError(t, env.store.VerificationTokens().DeleteVerificationTokensForUser(ctx, userID))

	expired := domain.VerificationToken{
		ID:        idx.New().String(),
		UserID:    userID,
		TokenHash: "expired-hash",
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
		CreatedAt: time.Now().UTC().Add(-2 * time.Hour),
	}
	require.NoError(t, env.store.VerificationTokens().CreateVerificationToken(ctx, expired))

	hk := NewHousekeepingService(env.store.VerificationTokens(), slog.Default(), time.Hour)
	hk.Start()
	hk.Stop()

	_, err := env.store.VerificationTokens().ConsumeVerificationToken(ctx, expired.TokenHash)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestHousekeepingDefaultsInterval(t *testing.T) {
	hk := NewHousekeepingService(nil, slog.Default(), 0)
	require.Equal(t, time.Hour, hk.Interval)
}
