package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/ragno-typhojem/libocculus/internal/application/session"
	"github.com/ragno-typhojem/libocculus/internal/domain"
	"github.com/ragno-typhojem/libocculus/internal/pkg/cooldown"
	"github.com/ragno-typhojem/libocculus/internal/pkg/id"
	"github.com/ragno-typhojem/libocculus/internal/pkg/otpcode"
)

// MinPasswordLength is the shortest password accepted at registration and reset.
const MinPasswordLength = 6

// VerificationStore is the subset of VerificationRepo used by this service.
type VerificationStore interface {
	Put(ctx context.Context, v *domain.OTPRecord) error
	Get(ctx context.Context, email, purpose string) (*domain.OTPRecord, error)
	MarkVerified(ctx context.Context, email, purpose string) error
}

// AccountStore is the subset of AccountRepo used by this service.
type AccountStore interface {
	Create(ctx context.Context, c *domain.Credential, u *domain.User) error
	GetCredential(ctx context.Context, email string) (*domain.Credential, error)
	UpdatePasswordHash(ctx context.Context, email, hash string, at time.Time) error
}

// AttemptResetter clears the failed-login counter for an email.
type AttemptResetter interface {
	Reset(ctx context.Context, key string) error
}

// OTPSender delivers a code to an inbox.
type OTPSender interface {
	SendOTP(ctx context.Context, email, code, purpose string) error
}

type VerifyOTPRequest struct {
	Email    string `json:"email" validate:"required"`
	Code     string `json:"code" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required"`
	Code        string `json:"code" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

type Service interface {
	RequestOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*session.Result, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, req ResetPasswordRequest) error
}

type ServiceDeps struct {
	Verifications     VerificationStore
	Accounts          AccountStore
	Sender            OTPSender
	Signer            session.TokenSigner
	Attempts          AttemptResetter // optional
	Cooldown          cooldown.Window
	InstitutionDomain string
	Now               func() time.Time
	NewCode           func() (string, error)
}

type service struct {
	verifications     VerificationStore
	accounts          AccountStore
	sender            OTPSender
	signer            session.TokenSigner
	attempts          AttemptResetter
	window            cooldown.Window
	institutionDomain string
	now               func() time.Time
	newCode           func() (string, error)
}

func NewService(deps ServiceDeps) Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewCode == nil {
		deps.NewCode = otpcode.Generate
	}
	if deps.Cooldown.Period <= 0 {
		deps.Cooldown = cooldown.New(0)
	}
	return &service{
		verifications:     deps.Verifications,
		accounts:          deps.Accounts,
		sender:            deps.Sender,
		signer:            deps.Signer,
		attempts:          deps.Attempts,
		window:            deps.Cooldown,
		institutionDomain: deps.InstitutionDomain,
		now:               deps.Now,
		newCode:           deps.NewCode,
	}
}

func (s *service) RequestOTP(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if err := domain.RequireInstitutionalEmail(email, s.institutionDomain); err != nil {
		return err
	}
	return s.issue(ctx, email, domain.OTPPurposeRegister)
}

func (s *service) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*session.Result, error) {
	email := domain.NormalizeEmail(req.Email)
	if err := domain.RequireInstitutionalEmail(email, s.institutionDomain); err != nil {
		return nil, err
	}
	if _, err := s.check(ctx, email, domain.OTPPurposeRegister, req.Code); err != nil {
		return nil, err
	}
	if err := checkPassword(req.Password); err != nil {
		return nil, err
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	u := &domain.User{
		UserID:        id.At(now),
		Email:         email,
		StudentID:     domain.StudentIDFromEmail(email),
		EmailVerified: true,
		CreatedAt:     now,
		LastLogin:     now,
	}
	cred := &domain.Credential{
		Email:        email,
		UserID:       u.UserID,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, cred, u); err != nil {
		if errors.Is(err, domain.ErrDuplicateAccount) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrRegistrationFailed, err)
	}

	if err := s.verifications.MarkVerified(ctx, email, domain.OTPPurposeRegister); err != nil {
		slog.Warn("could not mark otp verified", "component", "auth", "email", email, "err", err)
	}
	slog.Info("account created", "component", "auth", "user_id", u.UserID)

	token, err := s.signer.Sign(u.UserID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &session.Result{Token: token, Session: session.Snapshot(u, s.window, now)}, nil
}

func (s *service) RequestPasswordReset(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if err := domain.RequireInstitutionalEmail(email, s.institutionDomain); err != nil {
		return err
	}
	if _, err := s.accounts.GetCredential(ctx, email); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrPersistenceFailed, err)
	}
	return s.issue(ctx, email, domain.OTPPurposeReset)
}

func (s *service) ConfirmPasswordReset(ctx context.Context, req ResetPasswordRequest) error {
	email := domain.NormalizeEmail(req.Email)
	if err := domain.RequireInstitutionalEmail(email, s.institutionDomain); err != nil {
		return err
	}
	rec, err := s.check(ctx, email, domain.OTPPurposeReset, req.Code)
	if err != nil {
		return err
	}
	if rec.Verified {
		return fmt.Errorf("reset code already used: %w", domain.ErrExpired)
	}
	if err := checkPassword(req.NewPassword); err != nil {
		return err
	}
	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.accounts.UpdatePasswordHash(ctx, email, hash, s.now()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrPersistenceFailed, err)
	}
	if err := s.verifications.MarkVerified(ctx, email, domain.OTPPurposeReset); err != nil {
		slog.Warn("could not mark reset code used", "component", "auth", "email", email, "err", err)
	}
	// A new password lifts any lockout earned with the old one.
	if s.attempts != nil {
		if err := s.attempts.Reset(ctx, email); err != nil {
			slog.Warn("could not reset login attempts", "component", "auth", "email", email, "err", err)
		}
	}
	return nil
}

// issue stores a fresh code, replacing any outstanding one, and emails it.
func (s *service) issue(ctx context.Context, email, purpose string) error {
	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	expires := s.now().Add(otpcode.Lifetime)
	rec := &domain.OTPRecord{
		Email:     email,
		Purpose:   purpose,
		Code:      code,
		ExpiresAt: expires.Unix(),
		PurgeAt:   expires.Add(domain.OTPRetention).Unix(),
	}
	if err := s.verifications.Put(ctx, rec); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistenceFailed, err)
	}
	if err := s.sender.SendOTP(ctx, email, code, purpose); err != nil {
		slog.Error("otp dispatch failed", "component", "auth", "purpose", purpose, "err", err)
		return fmt.Errorf("%w: %w", domain.ErrDispatchFailed, err)
	}
	return nil
}

// check applies the lookup, expiry and equality rules in that order.
func (s *service) check(ctx context.Context, email, purpose, code string) (*domain.OTPRecord, error) {
	rec, err := s.verifications.Get(ctx, email, purpose)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("no code issued for %s: %w", email, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistenceFailed, err)
	}
	if s.now().Unix() > rec.ExpiresAt {
		return nil, fmt.Errorf("code expired: %w", domain.ErrExpired)
	}
	if strings.TrimSpace(code) != rec.Code {
		return nil, fmt.Errorf("code does not match: %w", domain.ErrMismatch)
	}
	return rec, nil
}

func checkPassword(pw string) error {
	if utf8.RuneCountInString(pw) < MinPasswordLength {
		return fmt.Errorf("password shorter than %d characters: %w", MinPasswordLength, domain.ErrWeakPassword)
	}
	return nil
}

func hashPassword(pw string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("password too long: %w", domain.ErrBadRequest)
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}
