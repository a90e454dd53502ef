package handler

import (
	"net/http"

	"github.com/ragno-typhojem/libocculus/internal/application/auth"
)

// OTPHandler drives registration: code issuance then verification.
type OTPHandler struct {
	svc auth.Service
}

func NewOTPHandler(svc auth.Service) *OTPHandler {
	return &OTPHandler{svc: svc}
}

type emailRequest struct {
	Email string `json:"email" validate:"required"`
}

func (h *OTPHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decode(r, &req); err != nil {
		httpError(w, r, err)
		return
	}
	if err := h.svc.RequestOTP(r.Context(), req.Email); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "OTP sent"})
}

func (h *OTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req auth.VerifyOTPRequest
	if err := decode(r, &req); err != nil {
		httpError(w, r, err)
		return
	}
	result, err := h.svc.VerifyOTP(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, AuthEnvelope{Bearer: result.Token, Session: result.Session})
}
