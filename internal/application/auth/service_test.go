package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ragno-typhojem/libocculus/internal/domain"
	"github.com/ragno-typhojem/libocculus/internal/pkg/cooldown"
)

// --- mocks ---

type mockVerificationStore struct{ mock.Mock }

func (m *mockVerificationStore) Put(ctx context.Context, v *domain.OTPRecord) error {
	return m.Called(ctx, v).Error(0)
}
func (m *mockVerificationStore) Get(ctx context.Context, email, purpose string) (*domain.OTPRecord, error) {
	args := m.Called(ctx, email, purpose)
	if v, _ := args.Get(0).(*domain.OTPRecord); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockVerificationStore) MarkVerified(ctx context.Context, email, purpose string) error {
	return m.Called(ctx, email, purpose).Error(0)
}

type mockAccountStore struct{ mock.Mock }

func (m *mockAccountStore) Create(ctx context.Context, c *domain.Credential, u *domain.User) error {
	return m.Called(ctx, c, u).Error(0)
}
func (m *mockAccountStore) GetCredential(ctx context.Context, email string) (*domain.Credential, error) {
	args := m.Called(ctx, email)
	if c, _ := args.Get(0).(*domain.Credential); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountStore) UpdatePasswordHash(ctx context.Context, email, hash string, at time.Time) error {
	return m.Called(ctx, email, hash, at).Error(0)
}

type mockSender struct{ mock.Mock }

func (m *mockSender) SendOTP(ctx context.Context, email, code, purpose string) error {
	return m.Called(ctx, email, code, purpose).Error(0)
}

type mockSigner struct{ mock.Mock }

func (m *mockSigner) Sign(userID, email string) (string, error) {
	args := m.Called(userID, email)
	return args.String(0), args.Error(1)
}

type mockAttempts struct{ mock.Mock }

func (m *mockAttempts) Reset(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

// --- builder ---

const email = "e1234567@metu.edu.tr"

var fixedNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type fixture struct {
	ver  *mockVerificationStore
	acc  *mockAccountStore
	send *mockSender
	sign *mockSigner
	att  *mockAttempts
	now  time.Time
	svc  Service
}

func newFixture() *fixture {
	f := &fixture{ver: &mockVerificationStore{}, acc: &mockAccountStore{}, send: &mockSender{}, sign: &mockSigner{}, att: &mockAttempts{}, now: fixedNow}
	f.svc = NewService(ServiceDeps{
		Verifications:     f.ver,
		Accounts:          f.acc,
		Sender:            f.send,
		Signer:            f.sign,
		Attempts:          f.att,
		Cooldown:          cooldown.New(time.Hour),
		InstitutionDomain: "metu.edu.tr",
		Now:               func() time.Time { return f.now },
		NewCode:           func() (string, error) { return "042137", nil },
	})
	return f
}

func issued(purpose string) *domain.OTPRecord {
	return &domain.OTPRecord{Email: email, Purpose: purpose, Code: "042137", ExpiresAt: fixedNow.Add(10 * time.Minute).Unix()}
}

// --- RequestOTP ---

func TestRequestOTP_StoresThenSends(t *testing.T) {
	f := newFixture()
	f.ver.On("Put", mock.Anything, &domain.OTPRecord{
		Email: email, Purpose: domain.OTPPurposeRegister, Code: "042137",
		ExpiresAt: fixedNow.Unix() + 600, PurgeAt: fixedNow.Unix() + 600 + 86400,
	}).Return(nil)
	f.send.On("SendOTP", mock.Anything, email, "042137", domain.OTPPurposeRegister).Return(nil)

	require.NoError(t, f.svc.RequestOTP(context.Background(), " E1234567@metu.edu.tr"))
	f.ver.AssertExpectations(t)
	f.send.AssertExpectations(t)
}

func TestRequestOTP_RecordOutlivesExpiry(t *testing.T) {
	f := newFixture()
	var rec *domain.OTPRecord
	f.ver.On("Put", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { rec = args.Get(1).(*domain.OTPRecord) }).Return(nil)
	f.send.On("SendOTP", mock.Anything, email, "042137", domain.OTPPurposeRegister).Return(nil)
	require.NoError(t, f.svc.RequestOTP(context.Background(), email))

	// A day after expiry the record is still there and reads as expired, not missing.
	f.now = fixedNow.Add(10*time.Minute + 23*time.Hour)
	require.Less(t, f.now.Unix(), rec.PurgeAt)
	f.ver.On("Get", mock.Anything, email, domain.OTPPurposeRegister).Return(rec, nil)

	_, err := f.svc.VerifyOTP(context.Background(), VerifyOTPRequest{Email: email, Code: rec.Code, Password: "abcdef"})
	assert.ErrorIs(t, err, domain.ErrExpired)
}

func TestRequestOTP_WrongDomain(t *testing.T) {
	for _, in := range []string{"x@gmail.com", "x@metu.edu.tr.evil.com", "@metu.edu.tr", ""} {
		f := newFixture()
		err := f.svc.RequestOTP(context.Background(), in)
		assert.ErrorIs(t, err, domain.ErrInvalidEmailDomain, in)
		f.ver.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
	}
}

func TestRequestOTP_StoreFails_NoEmail(t *testing.T) {
	f := newFixture()
	f.ver.On("Put", mock.Anything, mock.Anything).Return(errors.New("throttled"))

	err := f.svc.RequestOTP(context.Background(), email)
	assert.ErrorIs(t, err, domain.ErrPersistenceFailed)
	f.send.AssertNotCalled(t, "SendOTP", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestOTP_SendFails(t *testing.T) {
	f := newFixture()
	f.ver.On("Put", mock.Anything, mock.Anything).Return(nil)
	f.send.On("SendOTP", mock.Anything, email, "042137", domain.OTPPurposeRegister).Return(errors.New("status 500"))

	err := f.svc.RequestOTP(context.Background(), email)
	assert.ErrorIs(t, err, domain.ErrDispatchFailed)
}

// --- VerifyOTP ---

func TestVerifyOTP_CreatesVerifiedAccount(t *testing.T) {
	f := newFixture()
	f.ver.On("Get", mock.Anything, email, domain.OTPPurposeRegister).Return(issued(domain.OTPPurposeRegister), nil)
	var created *domain.User
	var cred *domain.Credential
	f.acc.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			cred = args.Get(1).(*domain.Credential)
			created = args.Get(2).(*domain.User)
		}).Return(nil)
	f.ver.On("MarkVerified", mock.Anything, email, domain.OTPPurposeRegister).Return(nil)
	f.sign.On("Sign", mock.Anything, email).Return("bearer", nil)

	res, err := f.svc.VerifyOTP(context.Background(), VerifyOTPRequest{Email: email, Code: " 042137 ", Password: "abcdef"})
	require.NoError(t, err)

	assert.Equal(t, "bearer", res.Token)
	assert.True(t, created.EmailVerified)
	assert.Equal(t, 0, created.Points)
	assert.Equal(t, 0, created.TotalContributions)
	assert.Equal(t, "1234567", created.StudentID)
	assert.Equal(t, created.UserID, cred.UserID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte("abcdef")))
	assert.True(t, res.Session.CanSubmit)
	assert.Same(t, created, res.Session.User)
	f.ver.AssertCalled(t, "MarkVerified", mock.Anything, email, domain.OTPPurposeRegister)
}

func TestVerifyOTP_AcceptsTheCodeThatWasSent(t *testing.T) {
	ver, acc, send, sign := &mockVerificationStore{}, &mockAccountStore{}, &mockSender{}, &mockSigner{}
	svc := NewService(ServiceDeps{
		Verifications:     ver,
		Accounts:          acc,
		Sender:            send,
		Signer:            sign,
		InstitutionDomain: "metu.edu.tr",
		Now:               func() time.Time { return fixedNow },
	})

	var stored *domain.OTPRecord
	ver.On("Put", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*domain.OTPRecord) }).Return(nil)
	var mailed string
	send.On("SendOTP", mock.Anything, email, mock.Anything, domain.OTPPurposeRegister).
		Run(func(args mock.Arguments) { mailed = args.String(2) }).Return(nil)
	require.NoError(t, svc.RequestOTP(context.Background(), email))
	require.NotNil(t, stored)
	require.Len(t, stored.Code, 6)
	assert.Equal(t, stored.Code, mailed)

	ver.On("Get", mock.Anything, email, domain.OTPPurposeRegister).Return(stored, nil)
	acc.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ver.On("MarkVerified", mock.Anything, email, domain.OTPPurposeRegister).Return(nil)
	sign.On("Sign", mock.Anything, email).Return("bearer", nil)

	res, err := svc.VerifyOTP(context.Background(), VerifyOTPRequest{Email: email, Code: mailed, Password: "abcdef"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", res.Token)
	assert.True(t, res.Session.User.EmailVerified)
}

func TestVerifyOTP_ErrorOrder(t *testing.T) {
	tests := []struct {
		name     string
		rec      *domain.OTPRecord
		getErr   error
		code     string
		password string
		want     error
	}{
		{"missing", nil, domain.ErrNotFound, "000000", "x", domain.ErrNotFound},
		{"expired beats mismatch", &domain.OTPRecord{Code: "042137", ExpiresAt: fixedNow.Unix() - 1}, nil, "999999", "x", domain.ErrExpired},
		{"mismatch beats weak password", issued(domain.OTPPurposeRegister), nil, "999999", "x", domain.ErrMismatch},
		{"weak password", issued(domain.OTPPurposeRegister), nil, "042137", "abcde", domain.ErrWeakPassword},
		{"store down", nil, errors.New("throttled"), "042137", "abcdef", domain.ErrPersistenceFailed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.ver.On("Get", mock.Anything, email, domain.OTPPurposeRegister).Return(tc.rec, tc.getErr)

			_, err := f.svc.VerifyOTP(context.Background(), VerifyOTPRequest{Email: email, Code: tc.code, Password: tc.password})
			assert.ErrorIs(t, err, tc.want)
			f.acc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestVerifyOTP_ExpiryBoundaryInclusive(t *testing.T) {
	f := newFixture()
	f.now = fixedNow.Add(10 * time.Minute)
	f.ver.On("Get", mock.Anything, email, domain.OTPPurposeRegister).Return(issued(domain.OTPPurposeRegister), nil)
	f.acc.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.ver.On("MarkVerified", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.sign.On("Sign", mock.Anything, mock.Anything).Return("bearer", nil)

	_, err := f.svc.VerifyOTP(context.Background(), VerifyOTPRequest{Email: email, Code: "042137", Password: "abcdef"})
	assert.NoError(t, err)

	f.now = fixedNow.Add(10*time.Minute + time.Second)
	_, err = f.svc.VerifyOTP(context.Background(), VerifyOTPRequest{Email: email, Code: "042137", Password: "abcdef"})
	assert.ErrorIs(t, err, domain.ErrExpired)
}

func TestVerifyOTP_Duplicate(t *testing.T) {
	f := newFixture()
	f.ver.On("Get", mock.Anything, email, domain.OTPPurposeRegister).Return(issued(domain.OTPPurposeRegister), nil)
	f.acc.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(domain.ErrDuplicateAccount)

	_, err := f.svc.VerifyOTP(context.Background(), VerifyOTPRequest{Email: email, Code: "042137", Password: "abcdef"})
	assert.ErrorIs(t, err, domain.ErrDuplicateAccount)
	f.ver.AssertNotCalled(t, "MarkVerified", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyOTP_CreateFails(t *testing.T) {
	f := newFixture()
	f.ver.On("Get", mock.Anything, email, domain.OTPPurposeRegister).Return(issued(domain.OTPPurposeRegister), nil)
	f.acc.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("internal server error"))

	_, err := f.svc.VerifyOTP(context.Background(), VerifyOTPRequest{Email: email, Code: "042137", Password: "abcdef"})
	assert.ErrorIs(t, err, domain.ErrRegistrationFailed)
}

// --- password reset ---

func TestRequestPasswordReset_UnknownAccount(t *testing.T) {
	f := newFixture()
	f.acc.On("GetCredential", mock.Anything, email).Return(nil, domain.ErrNotFound)

	err := f.svc.RequestPasswordReset(context.Background(), email)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	f.ver.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestRequestPasswordReset_IssuesResetCode(t *testing.T) {
	f := newFixture()
	f.acc.On("GetCredential", mock.Anything, email).Return(&domain.Credential{Email: email}, nil)
	f.ver.On("Put", mock.Anything, mock.MatchedBy(func(r *domain.OTPRecord) bool {
		return r.Purpose == domain.OTPPurposeReset && r.Code == "042137"
	})).Return(nil)
	f.send.On("SendOTP", mock.Anything, email, "042137", domain.OTPPurposeReset).Return(nil)

	require.NoError(t, f.svc.RequestPasswordReset(context.Background(), email))
	f.send.AssertExpectations(t)
}

func TestConfirmPasswordReset(t *testing.T) {
	f := newFixture()
	f.ver.On("Get", mock.Anything, email, domain.OTPPurposeReset).Return(issued(domain.OTPPurposeReset), nil)
	f.acc.On("UpdatePasswordHash", mock.Anything, email, mock.MatchedBy(func(h string) bool {
		return bcrypt.CompareHashAndPassword([]byte(h), []byte("newpass1")) == nil
	}), fixedNow).Return(nil)
	f.ver.On("MarkVerified", mock.Anything, email, domain.OTPPurposeReset).Return(nil)
	f.att.On("Reset", mock.Anything, email).Return(nil)

	err := f.svc.ConfirmPasswordReset(context.Background(), ResetPasswordRequest{Email: email, Code: "042137", NewPassword: "newpass1"})
	require.NoError(t, err)
	f.acc.AssertExpectations(t)
	f.att.AssertExpectations(t)
}

func TestConfirmPasswordReset_AttemptResetFailureIgnored(t *testing.T) {
	f := newFixture()
	f.ver.On("Get", mock.Anything, email, domain.OTPPurposeReset).Return(issued(domain.OTPPurposeReset), nil)
	f.acc.On("UpdatePasswordHash", mock.Anything, email, mock.Anything, fixedNow).Return(nil)
	f.ver.On("MarkVerified", mock.Anything, email, domain.OTPPurposeReset).Return(nil)
	f.att.On("Reset", mock.Anything, email).Return(errors.New("redis down"))

	err := f.svc.ConfirmPasswordReset(context.Background(), ResetPasswordRequest{Email: email, Code: "042137", NewPassword: "newpass1"})
	assert.NoError(t, err)
	f.att.AssertCalled(t, "Reset", mock.Anything, email)
}

func TestConfirmPasswordReset_UpdateFails_KeepsLockout(t *testing.T) {
	f := newFixture()
	f.ver.On("Get", mock.Anything, email, domain.OTPPurposeReset).Return(issued(domain.OTPPurposeReset), nil)
	f.acc.On("UpdatePasswordHash", mock.Anything, email, mock.Anything, fixedNow).Return(errors.New("throttled"))

	err := f.svc.ConfirmPasswordReset(context.Background(), ResetPasswordRequest{Email: email, Code: "042137", NewPassword: "newpass1"})
	assert.ErrorIs(t, err, domain.ErrPersistenceFailed)
	f.att.AssertNotCalled(t, "Reset", mock.Anything, mock.Anything)
}

func TestConfirmPasswordReset_CodeAlreadyUsed(t *testing.T) {
	f := newFixture()
	rec := issued(domain.OTPPurposeReset)
	rec.Verified = true
	f.ver.On("Get", mock.Anything, email, domain.OTPPurposeReset).Return(rec, nil)

	err := f.svc.ConfirmPasswordReset(context.Background(), ResetPasswordRequest{Email: email, Code: "042137", NewPassword: "newpass1"})
	assert.ErrorIs(t, err, domain.ErrExpired)
}

func TestConfirmPasswordReset_WeakPassword(t *testing.T) {
	f := newFixture()
	f.ver.On("Get", mock.Anything, email, domain.OTPPurposeReset).Return(issued(domain.OTPPurposeReset), nil)

	err := f.svc.ConfirmPasswordReset(context.Background(), ResetPasswordRequest{Email: email, Code: "042137", NewPassword: "12345"})
	assert.ErrorIs(t, err, domain.ErrWeakPassword)
}
