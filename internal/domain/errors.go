package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	// Validation: rejected locally, before any backend call.
	ErrInvalidEmailDomain = errors.New("invalid email domain")
	ErrWeakPassword       = errors.New("weak password")
	ErrBadRequest         = errors.New("bad request")

	// Auth.
	ErrNotFound         = errors.New("not found")
	ErrExpired          = errors.New("expired")
	ErrMismatch         = errors.New("code mismatch")
	ErrDuplicateAccount = errors.New("account already exists")
	ErrBadCredential    = errors.New("bad credential")
	ErrRateLimited      = errors.New("too many attempts")
	ErrNotVerified      = errors.New("email not verified")
	ErrUnauthorized     = errors.New("unauthorized")

	// Business rules.
	ErrCooldownActive     = errors.New("cooldown active")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrRewardUnavailable  = errors.New("reward unavailable")

	// Transient service failures.
	ErrDispatchFailed     = errors.New("email dispatch failed")
	ErrPersistenceFailed  = errors.New("persistence failed")
	ErrRegistrationFailed = errors.New("registration failed")
)

// CooldownError reports how long a submitter must wait before the next report.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("next submission allowed in %d minutes", e.RemainingMinutes())
}

func (e *CooldownError) Unwrap() error { return ErrCooldownActive }

// RemainingMinutes is ceil(remaining ms / 60000).
func (e *CooldownError) RemainingMinutes() int {
	return int(math.Ceil(float64(e.Remaining.Milliseconds()) / 60000))
}

// ErrorKind groups errors the way they are surfaced to users.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindAuth       ErrorKind = "auth"
	KindBusiness   ErrorKind = "business"
	KindTransient  ErrorKind = "transient"
)

// Kind classifies err. Unknown errors are treated as transient.
func Kind(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrInvalidEmailDomain), errors.Is(err, ErrWeakPassword), errors.Is(err, ErrBadRequest):
		return KindValidation
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrExpired), errors.Is(err, ErrMismatch),
		errors.Is(err, ErrDuplicateAccount), errors.Is(err, ErrBadCredential), errors.Is(err, ErrRateLimited),
		errors.Is(err, ErrNotVerified), errors.Is(err, ErrUnauthorized):
		return KindAuth
	case errors.Is(err, ErrCooldownActive), errors.Is(err, ErrInsufficientPoints),
		errors.Is(err, ErrRewardUnavailable):
		return KindBusiness
	default:
		return KindTransient
	}
}
