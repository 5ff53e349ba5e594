package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nagarseva/internal/adapters/persistence/models"
	"nagarseva/internal/config"
	"nagarseva/internal/core/domain"
	"nagarseva/internal/pkg/upload"
)

type fakeCaptcha struct {
	ok       bool
	verified []string
}

func (f *fakeCaptcha) Verify(id, answer string) bool {
	f.verified = append(f.verified, id)
	return f.ok
}

type fakeMailer struct {
	lastEmail string
	lastCode  string
	sent      int
	err       error
}

func (f *fakeMailer) SendOTP(email, code string, expiresAt time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.lastEmail = email
	f.lastCode = code
	f.sent++
	return nil
}

type fakeAccounts struct {
	user  *models.User
	isNew bool
	err   error
}

func (f *fakeAccounts) ProvisionGuest(ctx context.Context, fullName, email, phone string) (*models.User, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	return f.user, f.isNew, nil
}

func (f *fakeAccounts) IssueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	return &TokenPair{AccessToken: "access", RefreshToken: "refresh"}, nil
}

type fakeIntake struct {
	complaint  *models.Complaint
	err        error
	attachErr  error
	registered int
	attached   int
}

func (f *fakeIntake) Register(ctx context.Context, userID uint, draft *domain.ComplaintDraft, mode domain.SubmissionMode) (*models.Complaint, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.registered++
	return f.complaint, nil
}

func (f *fakeIntake) AttachFiles(ctx context.Context, complaint *models.Complaint, mgr *upload.Manager, uploadedBy *uint) error {
	if f.attachErr != nil {
		return f.attachErr
	}
	f.attached++
	return nil
}

type guestFixture struct {
	svc      *GuestService
	sessions *SessionStore
	captcha  *fakeCaptcha
	mailer   *fakeMailer
	accounts *fakeAccounts
	intake   *fakeIntake
	clock    time.Time
}

func newGuestFixture(t *testing.T) *guestFixture {
	t.Helper()

	cfg := &config.Config{
		OTP: config.OTPConfig{
			TTL:            10 * time.Minute,
			ResendCooldown: 60 * time.Second,
			MaxAttempts:    5,
			MaxResends:     3,
		},
		Complaint: config.ComplaintConfig{MinDescriptionLen: 10},
	}

	f := &guestFixture{
		sessions: NewSessionStore(),
		captcha:  &fakeCaptcha{ok: true},
		mailer:   &fakeMailer{},
		accounts: &fakeAccounts{
			user:  &models.User{ID: 7, FullName: "Asha Rao", Email: "asha@example.com", Role: "CITIZEN", IsActive: true},
			isNew: true,
		},
		intake: &fakeIntake{
			complaint: &models.Complaint{ID: 42, TrackingNumber: "NGS-2026-ABCD1234", Status: "REGISTERED"},
		},
		// SweepExpired compares ExpiresAt against the wall clock, so the
		// fixture clock must start at wall time rather than a fixed date
		clock: time.Now().UTC(),
	}
	f.svc = NewGuestService(f.sessions, f.captcha, f.mailer, f.accounts, f.intake, cfg)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *guestFixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func intakeInput() *GuestIntakeInput {
	return &GuestIntakeInput{
		FullName:     "Asha Rao",
		Email:        "Asha@Example.com",
		PhoneNumber:  "+919812345678",
		CaptchaID:    "cap-1",
		CaptchaValue: "x7k2m",
	}
}

func verifyDraft() *domain.ComplaintDraft {
	return &domain.ComplaintDraft{
		Category:    domain.CategoryWaterSupply,
		Description: "No water supply since Tuesday morning",
		WardID:      1,
		Area:        "Gandhi Nagar",
	}
}

func TestBeginIntakeOpensSession(t *testing.T) {
	f := newGuestFixture(t)

	res, err := f.svc.BeginIntake(context.Background(), intakeInput())
	require.NoError(t, err)

	assert.Equal(t, "asha@example.com", res.Email)
	assert.Equal(t, 600, res.ExpiresInSeconds)
	assert.Equal(t, 3, res.ResendsLeft)
	assert.Equal(t, 1, f.mailer.sent)
	assert.Equal(t, "asha@example.com", f.mailer.lastEmail)
	assert.Len(t, f.mailer.lastCode, 6)

	session, ok := f.sessions.GetByEmail("asha@example.com")
	require.True(t, ok)
	assert.Equal(t, SessionAwaitingOtp, session.State())
}

func TestBeginIntakeRejectsMissingIdentity(t *testing.T) {
	f := newGuestFixture(t)

	input := intakeInput()
	input.Email = "not-an-email"
	input.FullName = "  "

	_, err := f.svc.BeginIntake(context.Background(), input)

	var vErr *DraftValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "email")
	assert.Contains(t, vErr.Fields, "full_name")
	assert.Zero(t, f.mailer.sent)
}

func TestBeginIntakeCaptchaGate(t *testing.T) {
	f := newGuestFixture(t)

	input := intakeInput()
	input.CaptchaID = ""
	_, err := f.svc.BeginIntake(context.Background(), input)
	assert.ErrorIs(t, err, ErrCaptchaRequired)

	f.captcha.ok = false
	_, err = f.svc.BeginIntake(context.Background(), intakeInput())
	assert.ErrorIs(t, err, ErrCaptchaInvalid)
	assert.Zero(t, f.sessions.Count())
}

func TestBeginIntakeReplacesPriorSession(t *testing.T) {
	f := newGuestFixture(t)

	first, err := f.svc.BeginIntake(context.Background(), intakeInput())
	require.NoError(t, err)
	second, err := f.svc.BeginIntake(context.Background(), intakeInput())
	require.NoError(t, err)

	assert.NotEqual(t, first.SessionID, second.SessionID)
	assert.Equal(t, 1, f.sessions.Count())

	session, ok := f.sessions.GetByEmail("asha@example.com")
	require.True(t, ok)
	assert.Equal(t, second.SessionID, session.ID)
}

func TestBeginIntakeMailFailure(t *testing.T) {
	f := newGuestFixture(t)
	f.mailer.err = errors.New("smtp down")

	_, err := f.svc.BeginIntake(context.Background(), intakeInput())
	assert.ErrorIs(t, err, ErrMailDelivery)

	session, ok := f.sessions.GetByEmail("asha@example.com")
	require.True(t, ok)
	assert.Equal(t, SessionIntakeFailed, session.State())
	assert.NotEmpty(t, session.LastError)
}

func TestVerifyWrongCodeKeepsSession(t *testing.T) {
	f := newGuestFixture(t)
	_, err := f.svc.BeginIntake(context.Background(), intakeInput())
	require.NoError(t, err)

	_, err = f.svc.VerifyOTP(context.Background(), "asha@example.com", "000000", verifyDraft(), nil)
	assert.ErrorIs(t, err, ErrOTPInvalid)

	session, ok := f.sessions.GetByEmail("asha@example.com")
	require.True(t, ok)
	assert.Equal(t, SessionAwaitingOtp, session.State())
	assert.Equal(t, 1, session.Attempts)
	assert.Zero(t, f.intake.registered)
}

func TestVerifyAttemptCapInvalidatesSession(t *testing.T) {
	f := newGuestFixture(t)
	_, err := f.svc.BeginIntake(context.Background(), intakeInput())
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err = f.svc.VerifyOTP(context.Background(), "asha@example.com", "000000", verifyDraft(), nil)
		assert.ErrorIs(t, err, ErrOTPInvalid)
	}
	_, err = f.svc.VerifyOTP(context.Background(), "asha@example.com", "000000", verifyDraft(), nil)
	assert.ErrorIs(t, err, ErrTooManyAttempts)

	_, ok := f.sessions.GetByEmail("asha@example.com")
	assert.False(t, ok)
}

func TestVerifyExpiredCodeIsDistinctError(t *testing.T) {
	f := newGuestFixture(t)
	_, err := f.svc.BeginIntake(context.Background(), intakeInput())
	require.NoError(t, err)

	f.advance(11 * time.Minute)

	// Even the correct code fails once expired
	_, err = f.svc.VerifyOTP(context.Background(), "asha@example.com", f.mailer.lastCode, verifyDraft(), nil)
	assert.ErrorIs(t, err, ErrOTPExpired)

	// Session survives so a resend can revive it
	session, ok := f.sessions.GetByEmail("asha@example.com")
	require.True(t, ok)
	assert.Equal(t, SessionAwaitingOtp, session.State())
	assert.Zero(t, session.RemainingSeconds(f.clock))
}

func TestVerifySuccess(t *testing.T) {
	f := newGuestFixture(t)
	_, err := f.svc.BeginIntake(context.Background(), intakeInput())
	require.NoError(t, err)

	res, err := f.svc.VerifyOTP(context.Background(), "asha@example.com", f.mailer.lastCode, verifyDraft(), nil)
	require.NoError(t, err)

	assert.Equal(t, "NGS-2026-ABCD1234", res.Complaint.TrackingNumber)
	assert.True(t, res.IsNewUser)
	assert.Equal(t, "access", res.AccessToken)
	assert.Equal(t, 1, f.intake.registered)

	// Session is gone; a second verify has nothing to act on
	_, err = f.svc.VerifyOTP(context.Background(), "asha@example.com", f.mailer.lastCode, verifyDraft(), nil)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestVerifyNormalizesCodeInput(t *testing.T) {
	f := newGuestFixture(t)
	_, err := f.svc.BeginIntake(context.Background(), intakeInput())
	require.NoError(t, err)

	code := f.mailer.lastCode
	spaced := " " + code[:3] + " " + code[3:] + " "

	_, err = f.svc.VerifyOTP(context.Background(), "asha@example.com", spaced, verifyDraft(), nil)
	require.NoError(t, err)
}

func TestVerifyAgainstReplacedSessionIsDiscarded(t *testing.T) {
	f := newGuestFixture(t)
	_, err := f.svc.BeginIntake(context.Background(), intakeInput())
	require.NoError(t, err)

	first, ok := f.sessions.GetByEmail("asha@example.com")
	require.True(t, ok)
	firstCode := f.mailer.lastCode

	// Park a verify on the session lock, as if it arrived just as the
	// citizen restarted the form.
	first.mu.Lock()
	verifyErr := make(chan error, 1)
	go func() {
		_, err := f.svc.VerifyOTP(context.Background(), "asha@example.com", firstCode, verifyDraft(), nil)
		verifyErr <- err
	}()
	time.Sleep(20 * time.Millisecond)

	_, err = f.svc.BeginIntake(context.Background(), intakeInput())
	require.NoError(t, err)
	require.False(t, f.sessions.IsActive(first))
	first.mu.Unlock()

	// The old code must not register anything through the replaced session.
	assert.ErrorIs(t, <-verifyErr, ErrSessionNotFound)
	assert.Zero(t, f.intake.registered)
}

func TestVerifyIncompleteCodeDoesNotBurnAttempts(t *testing.T) {
	f := newGuestFixture(t)
	_, err := f.svc.BeginIntake(context.Background(), intakeInput())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err = f.svc.VerifyOTP(context.Background(), "asha@example.com", "123", verifyDraft(), nil)
		assert.ErrorIs(t, err, ErrOTPMalformed)
	}

	session, ok := f.sessions.GetByEmail("asha@example.com")
	require.True(t, ok)
	assert.Zero(t, session.Attempts)
	assert.Equal(t, SessionAwaitingOtp, session.State())

	// The emailed code still verifies once typed in full.
	_, err = f.svc.VerifyOTP(context.Background(), "asha@example.com", f.mailer.lastCode, verifyDraft(), nil)
	require.NoError(t, err)
}

func TestVerifySurfacesAttachmentFailure(t *testing.T) {
	f := newGuestFixture(t)
	f.intake.attachErr = errors.New("disk full")

	_, err := f.svc.BeginIntake(context.Background(), intakeInput())
	require.NoError(t, err)

	mgr, err := upload.NewManager(t.TempDir(), upload.Policy{
		MaxFiles:     5,
		MaxFileSize:  10 << 20,
		AllowedMimes: upload.DefaultAllowedMimes,
	})
	require.NoError(t, err)
	_, rejected := mgr.Add([]upload.Incoming{{
		FileName: "pothole.jpg",
		MimeType: "image/jpeg",
		Size:     4,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader([]byte("data"))), nil
		},
	}})
	require.Empty(t, rejected)

	res, err := f.svc.VerifyOTP(context.Background(), "asha@example.com", f.mailer.lastCode, verifyDraft(), mgr)
	require.NoError(t, err)

	// The complaint stands, but the caller is told its files did not.
	assert.Equal(t, 1, f.intake.registered)
	assert.NotEmpty(t, res.AttachmentsError)
}

func TestVerifyUsesSessionIdentityNotRequest(t *testing.T) {
	f := newGuestFixture(t)
	_, err := f.svc.BeginIntake(context.Background(), intakeInput())
	require.NoError(t, err)

	draft := verifyDraft()
	draft.Email = "attacker@example.com"
	draft.FullName = "Someone Else"

	_, err = f.svc.VerifyOTP(context.Background(), "asha@example.com", f.mailer.lastCode, draft, nil)
	require.NoError(t, err)

	assert.Equal(t, "asha@example.com", draft.Email)
	assert.Equal(t, "Asha Rao", draft.FullName)
}

func TestVerifyRegistrationFailureReturnsToAwaiting(t *testing.T) {
	f := newGuestFixture(t)
	_, err := f.svc.BeginIntake(context.Background(), intakeInput())
	require.NoError(t, err)

	f.intake.err = &DraftValidationError{Fields: domain.FieldErrors{"description": "Description is required"}}

	_, err = f.svc.VerifyOTP(context.Background(), "asha@example.com", f.mailer.lastCode, verifyDraft(), nil)
	var vErr *DraftValidationError
	require.ErrorAs(t, err, &vErr)

	// Session and code survive; attempts untouched
	session, ok := f.sessions.GetByEmail("asha@example.com")
	require.True(t, ok)
	assert.Equal(t, SessionAwaitingOtp, session.State())
	assert.Zero(t, session.Attempts)

	// Corrected re-submit with the same code succeeds
	f.intake.err = nil
	_, err = f.svc.VerifyOTP(context.Background(), "asha@example.com", f.mailer.lastCode, verifyDraft(), nil)
	require.NoError(t, err)
}

func TestVerifyWithoutSession(t *testing.T) {
	f := newGuestFixture(t)

	_, err := f.svc.VerifyOTP(context.Background(), "nobody@example.com", "123456", verifyDraft(), nil)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestResendCooldown(t *testing.T) {
	f := newGuestFixture(t)
	_, err := f.svc.BeginIntake(context.Background(), intakeInput())
	require.NoError(t, err)

	_, err = f.svc.ResendOTP(context.Background(), "asha@example.com")
	assert.ErrorIs(t, err, ErrResendCooldown)

	f.advance(61 * time.Second)
	firstCode := f.mailer.lastCode
	res, err := f.svc.ResendOTP(context.Background(), "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, res.ResendsLeft)
	assert.Equal(t, 2, f.mailer.sent)
	assert.NotEqual(t, firstCode, f.mailer.lastCode)
}

func TestResendResetsExpiryAndAttempts(t *testing.T) {
	f := newGuestFixture(t)
	_, err := f.svc.BeginIntake(context.Background(), intakeInput())
	require.NoError(t, err)

	_, err = f.svc.VerifyOTP(context.Background(), "asha@example.com", "000000", verifyDraft(), nil)
	assert.ErrorIs(t, err, ErrOTPInvalid)

	f.advance(9 * time.Minute)
	res, err := f.svc.ResendOTP(context.Background(), "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, 600, res.ExpiresInSeconds)

	session, ok := f.sessions.GetByEmail("asha@example.com")
	require.True(t, ok)
	assert.Zero(t, session.Attempts)

	// The freshly issued code verifies
	_, err = f.svc.VerifyOTP(context.Background(), "asha@example.com", f.mailer.lastCode, verifyDraft(), nil)
	require.NoError(t, err)
}

func TestResendLimit(t *testing.T) {
	f := newGuestFixture(t)
	_, err := f.svc.BeginIntake(context.Background(), intakeInput())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		f.advance(61 * time.Second)
		_, err = f.svc.ResendOTP(context.Background(), "asha@example.com")
		require.NoError(t, err)
	}

	f.advance(61 * time.Second)
	_, err = f.svc.ResendOTP(context.Background(), "asha@example.com")
	assert.ErrorIs(t, err, ErrTooManyResends)

	_, ok := f.sessions.GetByEmail("asha@example.com")
	assert.False(t, ok)
}

func TestResendAfterSuccessIsDiscarded(t *testing.T) {
	f := newGuestFixture(t)
	_, err := f.svc.BeginIntake(context.Background(), intakeInput())
	require.NoError(t, err)

	_, err = f.svc.VerifyOTP(context.Background(), "asha@example.com", f.mailer.lastCode, verifyDraft(), nil)
	require.NoError(t, err)

	f.advance(61 * time.Second)
	_, err = f.svc.ResendOTP(context.Background(), "asha@example.com")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 1, f.mailer.sent)
}

func TestCancelRemovesSession(t *testing.T) {
	f := newGuestFixture(t)
	_, err := f.svc.BeginIntake(context.Background(), intakeInput())
	require.NoError(t, err)

	require.NoError(t, f.svc.Cancel(context.Background(), "asha@example.com"))

	_, ok := f.sessions.GetByEmail("asha@example.com")
	assert.False(t, ok)
	assert.ErrorIs(t, f.svc.Cancel(context.Background(), "asha@example.com"), ErrSessionNotFound)
}

func TestSweepReclaimsAbandonedSessions(t *testing.T) {
	f := newGuestFixture(t)
	_, err := f.svc.BeginIntake(context.Background(), intakeInput())
	require.NoError(t, err)

	assert.Zero(t, f.svc.SweepSessions())

	// SweepExpired compares against the wall clock; pushing the session's
	// expiry into the past simulates the elapsed time
	session, _ := f.sessions.GetByEmail("asha@example.com")
	session.ExpiresAt = time.Now().Add(-15 * time.Minute)

	assert.Equal(t, 1, f.svc.SweepSessions())
	assert.Zero(t, f.sessions.Count())
}
