package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/babili/authd/internal/auth/service"
	"github.com/babili/authd/pkg/httpx"
	"github.com/babili/authd/pkg/slogx"
)

// LoginHandler handles POST /v1/auth/login.
type LoginHandler struct {
	LoginService *service.LoginService
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "Email and password are required")
		return
	}

	resp, err := h.LoginService.Login(ctx, req.Email, req.Password, req.TOTPCode)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
		return
	case errors.Is(err, service.ErrEmailNotVerified):
		writeError(w, http.StatusForbidden, "email_not_verified", "Email address has not been verified")
		return
	case errors.Is(err, service.ErrTwoFactorRequired):
		writeError(w, http.StatusUnauthorized, "two_factor_required", "A TOTP code is required for this account")
		return
	case errors.Is(err, service.ErrInvalidTwoFactorCode):
		writeError(w, http.StatusUnauthorized, "invalid_two_factor_code", "Invalid TOTP code")
		return
	case err != nil:
		log.Error("login failed", "err", err)
		writeServerError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}
