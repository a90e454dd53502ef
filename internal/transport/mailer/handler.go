// Package mailer serves the otp-mailer function: one JSON endpoint that
// emails a verification code.
package mailer

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ragno-typhojem/libocculus/internal/domain"
	"github.com/ragno-typhojem/libocculus/internal/infrastructure/dispatch"
)

// Sender delivers a rendered code email.
type Sender interface {
	SendOTP(ctx context.Context, email, code, purpose string) error
}

type response struct {
	Success bool   `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Handler accepts POST {email, otp, purpose?}.
type Handler struct {
	sender Sender
}

func NewHandler(sender Sender) *Handler {
	return &Handler{sender: sender}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, response{Error: "Method not allowed"})
		return
	}

	var req dispatch.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Error: "Geçersiz istek gövdesi"})
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.OTP = strings.TrimSpace(req.OTP)
	if req.Email == "" || req.OTP == "" {
		writeJSON(w, http.StatusBadRequest, response{Error: "Email ve OTP gerekli"})
		return
	}
	if req.Purpose == "" {
		req.Purpose = domain.OTPPurposeRegister
	}

	if err := h.sender.SendOTP(r.Context(), req.Email, req.OTP, req.Purpose); err != nil {
		slog.Error("otp email failed", "component", "otp-mailer", "email", req.Email, "err", err)
		writeJSON(w, http.StatusInternalServerError, response{Error: "Email gönderilemedi"})
		return
	}
	slog.Info("otp email sent", "component", "otp-mailer", "email", req.Email, "purpose", req.Purpose)
	writeJSON(w, http.StatusOK, response{Success: true, Message: "Email gönderildi"})
}

// NewRouter mounts h at / and /send-otp behind permissive CORS.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))
	r.Handle("/", h)
	r.Handle("/send-otp", h)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
