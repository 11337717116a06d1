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

// TwoFactorHandler handles all two-factor endpoints.
type TwoFactorHandler struct {
	TwoFactorService *service.TwoFactorService
}

// HandleSetup handles POST /v1/2fa/setup.
func (h *TwoFactorHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := userIDFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "Missing or invalid access token")
		return
	}

	resp, err := h.TwoFactorService.Setup(ctx, userID)
	switch {
	case errors.Is(err, service.ErrTwoFactorAlreadyEnabled):
		writeError(w, http.StatusConflict, "already_enabled", "Two-factor is already enabled for this account")
		return
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Account not found")
		return
	case err != nil:
		log.Error("2fa setup failed", "user_id", userID, "err", err)
		writeServerError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, TwoFactorSetupResponse{
		Secret:          resp.Secret,
		ProvisioningURI: resp.ProvisioningURI,
		Issuer:          resp.Issuer,
		Account:         resp.Account,
	})
}

// HandleConfirm handles POST /v1/2fa/confirm.
func (h *TwoFactorHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := userIDFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "Missing or invalid access token")
		return
	}

	var req TwoFactorCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	err := h.TwoFactorService.ConfirmSetup(ctx, userID, req.Code)
	switch {
	case errors.Is(err, service.ErrTwoFactorAlreadyEnabled):
		writeError(w, http.StatusConflict, "already_enabled", "Two-factor is already enabled for this account")
		return
	case errors.Is(err, service.ErrSetupNotInitiated):
		writeError(w, http.StatusConflict, "setup_not_initiated", "Call setup before confirming")
		return
	case errors.Is(err, service.ErrInvalidCode):
		writeError(w, http.StatusBadRequest, "invalid_code", "Invalid TOTP code")
		return
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Account not found")
		return
	case err != nil:
		log.Error("2fa confirm failed", "user_id", userID, "err", err)
		writeServerError(w)
		return
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleDisable handles POST /v1/2fa/disable.
func (h *TwoFactorHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := userIDFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "Missing or invalid access token")
		return
	}

	var req TwoFactorCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	err := h.TwoFactorService.Disable(ctx, userID, req.Code)
	switch {
	case errors.Is(err, service.ErrTwoFactorNotEnabled):
		writeError(w, http.StatusConflict, "not_enabled", "Two-factor is not enabled for this account")
		return
	case errors.Is(err, service.ErrInvalidCode):
		writeError(w, http.StatusBadRequest, "invalid_code", "Invalid TOTP code")
		return
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Account not found")
		return
	case err != nil:
		log.Error("2fa disable failed", "user_id", userID, "err", err)
		writeServerError(w)
		return
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleQRCode handles GET /v1/2fa/qrcode.
func (h *TwoFactorHandler) HandleQRCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := userIDFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "Missing or invalid access token")
		return
	}

	png, err := h.TwoFactorService.ProvisioningImage(ctx, userID)
	switch {
	case errors.Is(err, service.ErrSetupNotInitiated):
		writeError(w, http.StatusConflict, "setup_not_initiated", "Call setup before requesting a QR code")
		return
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Account not found")
		return
	case err != nil:
		log.Error("2fa qrcode failed", "user_id", userID, "err", err)
		writeServerError(w)
		return
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
