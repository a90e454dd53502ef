package smtp

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/ragno-typhojem/libocculus/internal/domain"
	"github.com/ragno-typhojem/libocculus/internal/pkg/otpcode"
)

//go:embed templates/*.html
var templateFS embed.FS

var otpTemplate = template.Must(template.ParseFS(templateFS, "templates/otp.html"))

var subjects = map[string]string{
	domain.OTPPurposeRegister: "[ODTÜ] Doğrulama Kodu - Libocculus",
	domain.OTPPurposeReset:    "[ODTÜ] Şifre Sıfırlama Kodu - Libocculus",
}

// OTPMailer renders and sends verification code emails.
type OTPMailer struct {
	mailer Mailer
}

func NewOTPMailer(m Mailer) *OTPMailer {
	return &OTPMailer{mailer: m}
}

// RenderOTP returns the subject and HTML body for a code.
func RenderOTP(code, purpose string) (string, string, error) {
	subject, ok := subjects[purpose]
	if !ok {
		subject = subjects[domain.OTPPurposeRegister]
	}
	var buf bytes.Buffer
	err := otpTemplate.Execute(&buf, map[string]any{
		"Code":         code,
		"Reset":        purpose == domain.OTPPurposeReset,
		"LifetimeMins": int(otpcode.Lifetime.Minutes()),
	})
	if err != nil {
		return "", "", fmt.Errorf("render otp email: %w", err)
	}
	return subject, buf.String(), nil
}

func (m *OTPMailer) SendOTP(_ context.Context, email, code, purpose string) error {
	subject, body, err := RenderOTP(code, purpose)
	if err != nil {
		return err
	}
	if err := m.mailer.SendEmail(email, subject, body); err != nil {
		return fmt.Errorf("send otp email: %w", err)
	}
	return nil
}
