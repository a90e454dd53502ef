package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ragno-typhojem/libocculus/internal/application/auth"
	"github.com/ragno-typhojem/libocculus/internal/application/report"
	"github.com/ragno-typhojem/libocculus/internal/application/reward"
	"github.com/ragno-typhojem/libocculus/internal/application/session"
	"github.com/ragno-typhojem/libocculus/internal/domain"
	jwtinfra "github.com/ragno-typhojem/libocculus/internal/infrastructure/jwt"
	"github.com/ragno-typhojem/libocculus/internal/transport/http/middleware"
)

// --- mocks ---

type mockAuthSvc struct{ mock.Mock }

func (m *mockAuthSvc) RequestOTP(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockAuthSvc) VerifyOTP(ctx context.Context, req auth.VerifyOTPRequest) (*session.Result, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*session.Result); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuthSvc) RequestPasswordReset(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockAuthSvc) ConfirmPasswordReset(ctx context.Context, req auth.ResetPasswordRequest) error {
	return m.Called(ctx, req).Error(0)
}

type mockSessionSvc struct{ mock.Mock }

func (m *mockSessionSvc) Login(ctx context.Context, req session.LoginRequest) (*session.Result, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*session.Result); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionSvc) Current(ctx context.Context, userID string) (*domain.Session, error) {
	args := m.Called(ctx, userID)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockReportSvc struct{ mock.Mock }

func (m *mockReportSvc) Submit(ctx context.Context, userID string, req report.SubmitRequest) (*report.SubmitResult, error) {
	args := m.Called(ctx, userID, req)
	if r, _ := args.Get(0).(*report.SubmitResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReportSvc) Overview(ctx context.Context) (*domain.Overview, error) {
	args := m.Called(ctx)
	if o, _ := args.Get(0).(*domain.Overview); o != nil {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockRewardSvc struct{ mock.Mock }

func (m *mockRewardSvc) List() []domain.Reward {
	return m.Called().Get(0).([]domain.Reward)
}

func (m *mockRewardSvc) Redeem(ctx context.Context, userID, rewardID string) (*reward.RedeemResult, error) {
	args := m.Called(ctx, userID, rewardID)
	if r, _ := args.Get(0).(*reward.RedeemResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRewardSvc) ListRedemptions(ctx context.Context, userID string) ([]domain.Redemption, error) {
	args := m.Called(ctx, userID)
	if r, _ := args.Get(0).([]domain.Redemption); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRewardSvc) QRCode(ctx context.Context, userID, redemptionID string) (*reward.QRImage, error) {
	args := m.Called(ctx, userID, redemptionID)
	if q, _ := args.Get(0).(*reward.QRImage); q != nil {
		return q, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

const testEmail = "e1234567@metu.edu.tr"

func jsonReq(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	r := httptest.NewRequest(method, target, bytes.NewReader(b))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// withUser attaches claims as the Auth middleware would.
func withUser(r *http.Request, userID string) *http.Request {
	claims := &jwtinfra.Claims{UserID: userID, Email: testEmail}
	return r.WithContext(middleware.WithClaims(r.Context(), claims))
}

// asUser is router middleware that authenticates every request as userID.
func asUser(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, withUser(r, userID))
		})
	}
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}
