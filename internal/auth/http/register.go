package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/babili/authd/internal/auth/service"
	"github.com/babili/authd/internal/auth/store"
	"github.com/babili/authd/pkg/httpx"
	"github.com/babili/authd/pkg/slogx"
)

const minPasswordLength = 8

// RegisterHandler handles POST /v1/auth/register.
type RegisterHandler struct {
	RegistrationService *service.RegistrationService
}

func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "A valid email address is required")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "Password must be at least 8 characters")
		return
	}
	if strings.TrimSpace(req.FirstName) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "First name is required")
		return
	}

	user, err := h.RegistrationService.Register(ctx, service.RegisterParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	switch {
	case errors.Is(err, store.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "email_taken", "An account with this email already exists")
		return
	case errors.Is(err, service.ErrDeliveryFailed):
		// Account created; the client can request a resend later.
		log.Warn("verification email delivery failed", "user_id", user.ID, "err", err)
		httpx.WriteJSON(w, http.StatusCreated, RegisterResponse{
			ID:      user.ID,
			Email:   user.Email,
			Message: "Account created, but the verification email could not be sent. Use resend-verification to retry.",
		})
		return
	case err != nil:
		log.Error("registration failed", "err", err)
		writeServerError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, RegisterResponse{
		ID:      user.ID,
		Email:   user.Email,
		Message: "Account created. Check your email for a verification link.",
	})
}
