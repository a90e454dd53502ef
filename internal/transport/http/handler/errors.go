package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/text/language"

	"github.com/ragno-typhojem/libocculus/internal/domain"
)

// Turkish is the default; English is served when Accept-Language prefers it.
var languages = language.NewMatcher([]language.Tag{language.Turkish, language.English})

type message struct{ tr, en string }

func (m message) pick(english bool) string {
	if english {
		return m.en
	}
	return m.tr
}

type errorMapping struct {
	target error
	status int
	code   string
	text   message
}

// Order matters: the first matching target wins.
var errorMappings = []errorMapping{
	{domain.ErrInvalidEmailDomain, http.StatusBadRequest, "invalid_email_domain",
		message{"ODTÜ e-posta adresi kullanmalısınız", "Please use your METU email address"}},
	{domain.ErrWeakPassword, http.StatusBadRequest, "weak_password",
		message{"Şifre en az 6 karakter olmalıdır", "Password must be at least 6 characters"}},
	{domain.ErrBadRequest, http.StatusBadRequest, "bad_request",
		message{"Lütfen tüm alanları doldurun", "Please fill in all fields"}},
	{domain.ErrNotFound, http.StatusNotFound, "not_found",
		message{"Kayıt bulunamadı", "Record not found"}},
	{domain.ErrExpired, http.StatusGone, "code_expired",
		message{"Kodun süresi doldu. Lütfen yeni kod isteyin.", "The code has expired. Please request a new one."}},
	{domain.ErrMismatch, http.StatusBadRequest, "code_mismatch",
		message{"Doğrulama kodu hatalı", "The verification code is incorrect"}},
	{domain.ErrDuplicateAccount, http.StatusConflict, "email_in_use",
		message{"Bu e-posta adresi zaten kullanımda. Giriş yapmayı deneyin.", "This email is already registered. Try signing in."}},
	{domain.ErrBadCredential, http.StatusUnauthorized, "wrong_password",
		message{"Hatalı e-posta veya şifre.", "Incorrect email or password."}},
	{domain.ErrRateLimited, http.StatusTooManyRequests, "too_many_attempts",
		message{"Çok fazla başarısız deneme. Lütfen daha sonra tekrar deneyin.", "Too many failed attempts. Please try again later."}},
	{domain.ErrNotVerified, http.StatusForbidden, "email_not_verified",
		message{"E-posta adresiniz doğrulanmamış.", "Your email address is not verified."}},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized",
		message{"Lütfen tekrar giriş yapın.", "Please sign in again."}},
	{domain.ErrCooldownActive, http.StatusTooManyRequests, "cooldown_active",
		message{"Bir sonraki gönderim için lütfen bekleyin", "Please wait before your next report"}},
	{domain.ErrInsufficientPoints, http.StatusConflict, "insufficient_points",
		message{"Yetersiz puan!", "Not enough points!"}},
	{domain.ErrRewardUnavailable, http.StatusConflict, "reward_unavailable",
		message{"Bu ödül şu anda alınamıyor", "This reward is not available right now"}},
	{domain.ErrDispatchFailed, http.StatusBadGateway, "email_dispatch_failed",
		message{"Doğrulama maili gönderilemedi.", "The verification email could not be sent."}},
	{domain.ErrRegistrationFailed, http.StatusInternalServerError, "registration_failed",
		message{"Kayıt başarısız. Lütfen tekrar deneyin.", "Registration failed. Please try again."}},
	{domain.ErrPersistenceFailed, http.StatusServiceUnavailable, "service_unavailable",
		message{"Veri gönderilemedi. Lütfen tekrar deneyin.", "The request could not be saved. Please try again."}},
}

var cooldownText = message{"Bir sonraki gönderim için %d dakika bekleyin", "Please wait %d minutes before your next report"}

var internalError = errorMapping{
	status: http.StatusInternalServerError,
	code:   "internal",
	text:   message{"Bir hata oluştu. Lütfen tekrar deneyin.", "Something went wrong. Please try again."},
}

func mappingFor(err error) errorMapping {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m
		}
	}
	return internalError
}

// english reports whether the caller prefers English over Turkish.
func english(r *http.Request) bool {
	_, idx := language.MatchStrings(languages, r.Header.Get("Accept-Language"))
	return idx == 1
}

// httpError maps a service error to a status code and a localized envelope.
func httpError(w http.ResponseWriter, r *http.Request, err error) {
	m := mappingFor(err)
	en := english(r)
	env := MessageEnvelope{Error: m.text.pick(en), ErrorCode: m.code}

	var cd *domain.CooldownError
	if errors.As(err, &cd) {
		env.NextSubmitInMinutes = cd.RemainingMinutes()
		env.Error = fmt.Sprintf(cooldownText.pick(en), env.NextSubmitInMinutes)
	}

	// Client-caused failures are expected traffic; only transient ones are logged.
	if domain.Kind(err) == domain.KindTransient {
		slog.Error("request failed", "component", "http", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, m.status, env)
}
