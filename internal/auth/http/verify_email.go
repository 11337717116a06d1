package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/babili/authd/internal/auth/service"
	"github.com/babili/authd/internal/auth/store"
	"github.com/babili/authd/pkg/httpx"
	"github.com/babili/authd/pkg/slogx"
)

// VerifyEmailHandler handles email verification redemption and resends.
type VerifyEmailHandler struct {
	VerificationService *service.VerificationService
}

// HandleVerify handles POST /v1/auth/verify-email.
func (h *VerifyEmailHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "Token is required")
		return
	}

	ok, err := h.VerificationService.Redeem(ctx, req.Token)
	if err != nil {
		log.Error("email verification failed", "err", err)
		writeServerError(w)
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "token_expired_or_invalid", "The verification link is invalid or has expired")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Email verified successfully",
	})
}

// HandleResend handles POST /v1/auth/resend-verification.
func (h *VerifyEmailHandler) HandleResend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req ResendVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "Email is required")
		return
	}

	err := h.VerificationService.Resend(ctx, req.Email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "No account with this email exists")
		return
	case errors.Is(err, service.ErrAlreadyVerified):
		writeError(w, http.StatusConflict, "already_verified", "This email address is already verified")
		return
	case errors.Is(err, service.ErrDeliveryFailed):
		log.Warn("verification email delivery failed", "err", err)
		writeError(w, http.StatusBadGateway, "delivery_failed", "The verification email could not be sent")
		return
	case err != nil:
		log.Error("resend verification failed", "err", err)
		writeServerError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Verification email sent",
	})
}
