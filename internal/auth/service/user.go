package service

import (
	"context"

	"github.com/babili/authd/internal/auth/domain"
	"github.com/babili/authd/internal/auth/store"
)

// UserService exposes read access to accounts for handlers.
type UserService struct {
	Store store.Store
}

func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}
