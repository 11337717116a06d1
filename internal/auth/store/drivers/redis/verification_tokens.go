// Package redis provides a VerificationTokens driver backed by Redis.
// Token expiry rides on native key TTLs, so an expired token is simply
// absent, which is exactly the externally observable contract.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/babili/authd/internal/auth/domain"
	"github.com/babili/authd/internal/auth/store"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "evt"

type tokenRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenStore implements store.VerificationTokens on a Redis client.
type TokenStore struct {
	rdb *redis.Client
}

func NewTokenStore(rdb *redis.Client) *TokenStore {
	return &TokenStore{rdb: rdb}
}

func tokenKey(hash string) string  { return keyPrefix + ":t:" + hash }
func userKey(userID string) string { return keyPrefix + ":u:" + userID }

func (s *TokenStore) CreateVerificationToken(ctx context.Context, t domain.VerificationToken) error {
	ttl := time.Until(t.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("redis: verification token already expired")
	}

	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	payload, err := json.Marshal(tokenRecord{
		ID:        t.ID,
		UserID:    t.UserID,
		ExpiresAt: t.ExpiresAt.UTC(),
		CreatedAt: createdAt,
	})
	if err != nil {
		return err
	}

	// Drop any previous token owned by the user before writing the new
	// pair of keys, keeping at most one live token per user.
	oldHash, err := s.rdb.Get(ctx, userKey(t.UserID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis: lookup prior token: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	if oldHash != "" {
		pipe.Del(ctx, tokenKey(oldHash))
	}
	pipe.Set(ctx, tokenKey(t.TokenHash), payload, ttl)
	pipe.Set(ctx, userKey(t.UserID), t.TokenHash, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: store token: %w", err)
	}
	return nil
}

func (s *TokenStore) ConsumeVerificationToken(ctx context.Context, tokenHash string) (domain.VerificationToken, error) {
	// GETDEL is atomic server-side, so of any concurrent redeemers exactly
	// one receives the record.
	data, err := s.rdb.GetDel(ctx, tokenKey(tokenHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.VerificationToken{}, store.ErrNotFound
		}
		return domain.VerificationToken{}, fmt.Errorf("redis: consume token: %w", err)
	}

	var rec tokenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.VerificationToken{}, fmt.Errorf("redis: decode token record: %w", err)
	}

	_ = s.rdb.Del(ctx, userKey(rec.UserID)).Err()

	return domain.VerificationToken{
		ID:        rec.ID,
		UserID:    rec.UserID,
		TokenHash: tokenHash,
		ExpiresAt: rec.ExpiresAt,
		CreatedAt: rec.CreatedAt,
	}, nil
}

func (s *TokenStore) DeleteVerificationTokensForUser(ctx context.Context, userID string) error {
	hash, err := s.rdb.GetDel(ctx, userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("redis: delete user token: %w", err)
	}
	return s.rdb.Del(ctx, tokenKey(hash)).Err()
}

// DeleteExpiredVerificationTokens is a no-op; Redis evicts expired keys itself.
func (s *TokenStore) DeleteExpiredVerificationTokens(ctx context.Context) error {
	return nil
}
