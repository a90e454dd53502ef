package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ragno-typhojem/libocculus/internal/domain"
	"github.com/ragno-typhojem/libocculus/internal/pkg/attempts"
	"github.com/ragno-typhojem/libocculus/internal/pkg/cooldown"
)

// UserStore is the subset of UserRepo used by this service.
type UserStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	TouchLogin(ctx context.Context, userID string, at time.Time) error
}

// CredentialStore is the subset of AccountRepo used by this service.
type CredentialStore interface {
	GetCredential(ctx context.Context, email string) (*domain.Credential, error)
}

// AttemptCounter tracks failed sign-ins per email.
type AttemptCounter interface {
	Count(ctx context.Context, key string) (int, error)
	Incr(ctx context.Context, key string) (int, error)
	Reset(ctx context.Context, key string) error
}

// TokenSigner is the subset of jwtinfra.Provider used by this service.
type TokenSigner interface {
	Sign(userID, email string) (string, error)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Result is returned by every operation that signs the caller in.
type Result struct {
	Token   string          `json:"token"`
	Session *domain.Session `json:"session"`
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*Result, error)
	Current(ctx context.Context, userID string) (*domain.Session, error)
}

type ServiceDeps struct {
	Users             UserStore
	Credentials       CredentialStore
	Attempts          AttemptCounter
	Signer            TokenSigner
	Cooldown          cooldown.Window
	InstitutionDomain string
	MaxAttempts       int
	Now               func() time.Time
}

type service struct {
	users             UserStore
	credentials       CredentialStore
	attempts          AttemptCounter
	signer            TokenSigner
	window            cooldown.Window
	institutionDomain string
	maxAttempts       int
	now               func() time.Time
}

func NewService(deps ServiceDeps) Service {
	if deps.MaxAttempts <= 0 {
		deps.MaxAttempts = attempts.DefaultLimit
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Cooldown.Period <= 0 {
		deps.Cooldown = cooldown.New(0)
	}
	return &service{
		users:             deps.Users,
		credentials:       deps.Credentials,
		attempts:          deps.Attempts,
		signer:            deps.Signer,
		window:            deps.Cooldown,
		institutionDomain: deps.InstitutionDomain,
		maxAttempts:       deps.MaxAttempts,
		now:               deps.Now,
	}
}

// Snapshot derives the caller's session view from a freshly read user.
func Snapshot(u *domain.User, w cooldown.Window, now time.Time) *domain.Session {
	last := u.LastSubmit()
	s := &domain.Session{
		User:               u,
		Points:             u.Points,
		TotalContributions: u.TotalContributions,
		LastSubmitAt:       u.LastSubmitAt,
		CanSubmit:          w.CanSubmit(last, now),
	}
	if !s.CanSubmit {
		s.NextSubmitInMinutes = w.RemainingMinutes(last, now)
	}
	return s
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*Result, error) {
	email := domain.NormalizeEmail(req.Email)
	if err := domain.RequireInstitutionalEmail(email, s.institutionDomain); err != nil {
		return nil, err
	}

	n, err := s.attempts.Count(ctx, email)
	if err != nil {
		slog.Warn("attempt counter unavailable", "component", "session", "err", err)
	}
	if n >= s.maxAttempts {
		return nil, fmt.Errorf("login locked for %s: %w", email, domain.ErrRateLimited)
	}

	cred, err := s.credentials.GetCredential(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("no account for %s: %w", email, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistenceFailed, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(req.Password)); err != nil {
		if _, cerr := s.attempts.Incr(ctx, email); cerr != nil {
			slog.Warn("could not record failed login", "component", "session", "err", cerr)
		}
		return nil, fmt.Errorf("wrong password: %w", domain.ErrBadCredential)
	}

	u, err := s.users.Get(ctx, cred.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistenceFailed, err)
	}
	if !u.EmailVerified {
		return nil, fmt.Errorf("user %s: %w", u.UserID, domain.ErrNotVerified)
	}

	if err := s.attempts.Reset(ctx, email); err != nil {
		slog.Warn("could not reset login attempts", "component", "session", "err", err)
	}
	now := s.now().UTC()
	if err := s.users.TouchLogin(ctx, u.UserID, now); err != nil {
		slog.Warn("could not update last_login", "component", "session", "user_id", u.UserID, "err", err)
	} else {
		u.LastLogin = now
	}

	token, err := s.signer.Sign(u.UserID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Result{Token: token, Session: Snapshot(u, s.window, now)}, nil
}

func (s *service) Current(ctx context.Context, userID string) (*domain.Session, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Snapshot(u, s.window, s.now()), nil
}
