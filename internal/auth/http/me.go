package http

import (
	"errors"
	"net/http"

	"github.com/babili/authd/internal/auth/service"
	"github.com/babili/authd/internal/auth/store"
	"github.com/babili/authd/pkg/httpx"
	"github.com/babili/authd/pkg/slogx"
)

// MeHandler handles GET /v1/me, the authenticated user's own profile.
type MeHandler struct {
	UserService *service.UserService
}

func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := userIDFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "Missing or invalid access token")
		return
	}

	user, err := h.UserService.GetUserByID(ctx, userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// Valid token for a deleted account.
		writeError(w, http.StatusNotFound, "not_found", "Account not found")
		return
	case err != nil:
		log.Warn("failed to load user", "user_id", userID, "err", err)
		writeServerError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, MeResponse{
		ID:               user.ID,
		Email:            user.Email,
		FirstName:        user.FirstName,
		LastName:         user.LastName,
		Role:             user.Role,
		EmailVerified:    user.IsEmailVerified(),
		TwoFactorEnabled: user.IsTwoFactorEnabled(),
	})
}
