package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ragno-typhojem/libocculus/internal/domain"
	"github.com/ragno-typhojem/libocculus/internal/pkg/validate"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message             string `json:"message,omitempty"`
	Error               string `json:"error,omitempty"`
	ErrorCode           string `json:"error_code,omitempty"`
	NextSubmitInMinutes int    `json:"next_submit_in_minutes,omitempty"`
}

// AuthEnvelope wraps register/login responses.
type AuthEnvelope struct {
	Bearer  string          `json:"Bearer"`
	Session *domain.Session `json:"session"`
}

// SessionEnvelope wraps current-session responses.
type SessionEnvelope struct {
	Session *domain.Session `json:"session"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body into dst and runs its validate tags.
// Failures wrap domain.ErrBadRequest.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %w", domain.ErrBadRequest, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrBadRequest, err)
	}
	return nil
}
