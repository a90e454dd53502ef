package handler

import (
	"net/http"

	"github.com/ragno-typhojem/libocculus/internal/application/auth"
)

// PasswordResetHandler handles the two-step password reset flow.
type PasswordResetHandler struct {
	svc auth.Service
}

func NewPasswordResetHandler(svc auth.Service) *PasswordResetHandler {
	return &PasswordResetHandler{svc: svc}
}

func (h *PasswordResetHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decode(r, &req); err != nil {
		httpError(w, r, err)
		return
	}
	if err := h.svc.RequestPasswordReset(r.Context(), req.Email); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "OTP sent"})
}

func (h *PasswordResetHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req auth.ResetPasswordRequest
	if err := decode(r, &req); err != nil {
		httpError(w, r, err)
		return
	}
	if err := h.svc.ConfirmPasswordReset(r.Context(), req); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "password updated"})
}
