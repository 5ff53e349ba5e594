package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"nagarseva/internal/adapters/persistence/models"
	"nagarseva/internal/config"
	"nagarseva/internal/core/domain"
	"nagarseva/internal/pkg/otpcode"
	"nagarseva/internal/pkg/password"
	"nagarseva/internal/pkg/upload"
)

// Guest workflow errors
var (
	ErrSessionNotFound  = errors.New("no active verification session for this email")
	ErrVerifyNotPending = errors.New("session is not awaiting verification")
	ErrOTPMalformed     = errors.New("verification code must be 6 digits")
	ErrOTPInvalid       = errors.New("incorrect verification code")
	ErrOTPExpired       = errors.New("verification code has expired, request a new one")
	ErrTooManyAttempts  = errors.New("too many incorrect attempts, start over")
	ErrResendCooldown   = errors.New("please wait before requesting another code")
	ErrTooManyResends   = errors.New("resend limit reached, start over")
	ErrMailDelivery     = errors.New("could not send the verification email, please retry")
)

// guestAccounts is the slice of AuthService the guest workflow needs
type guestAccounts interface {
	ProvisionGuest(ctx context.Context, fullName, email, phone string) (*models.User, bool, error)
	IssueTokens(ctx context.Context, user *models.User) (*TokenPair, error)
}

// complaintIntake is the slice of ComplaintService the guest workflow needs
type complaintIntake interface {
	Register(ctx context.Context, userID uint, draft *domain.ComplaintDraft, mode domain.SubmissionMode) (*models.Complaint, error)
	AttachFiles(ctx context.Context, complaint *models.Complaint, mgr *upload.Manager, uploadedBy *uint) error
}

// GuestIntakeInput starts a guest submission
type GuestIntakeInput struct {
	FullName     string `json:"full_name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	PhoneNumber  string `json:"phone_number" validate:"required"`
	CaptchaID    string `json:"captcha_id" validate:"required"`
	CaptchaValue string `json:"captcha_value" validate:"required"`
}

// GuestIntakeResult acknowledges a started session
type GuestIntakeResult struct {
	SessionID        string    `json:"session_id"`
	Email            string    `json:"email"`
	ExpiresAt        time.Time `json:"expires_at"`
	ExpiresInSeconds int       `json:"expires_in_seconds"`
	ResendsLeft      int       `json:"resends_left"`
}

// GuestVerifyResult is returned once the complaint is registered
type GuestVerifyResult struct {
	Complaint    *models.ComplaintResponse `json:"complaint"`
	User         *models.UserResponse      `json:"user"`
	AccessToken  string                    `json:"access_token"`
	RefreshToken string                    `json:"refresh_token"`
	IsNewUser    bool                      `json:"is_new_user"`

	// Set when the complaint was registered but its files were not
	AttachmentsError string `json:"attachments_error,omitempty"`
}

// GuestService orchestrates the guest complaint workflow: captcha-gated
// intake, OTP verification by mail, then account provisioning and
// complaint registration in one step
type GuestService struct {
	sessions   *SessionStore
	captcha    CaptchaVerifier
	mailer     OTPMailer
	accounts   guestAccounts
	complaints complaintIntake
	cfg        *config.Config

	// now is swappable for tests
	now func() time.Time
}

// NewGuestService creates a new guest workflow service
func NewGuestService(
	sessions *SessionStore,
	captcha CaptchaVerifier,
	mailer OTPMailer,
	accounts guestAccounts,
	complaints complaintIntake,
	cfg *config.Config,
) *GuestService {
	return &GuestService{
		sessions:   sessions,
		captcha:    captcha,
		mailer:     mailer,
		accounts:   accounts,
		complaints: complaints,
		cfg:        cfg,
		now:        time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// issueCode generates a fresh OTP, stores its hash on the session and
// mails it out. Caller holds no lock; session field writes happen before
// the session is observable or under the store's replacement semantics.
func (s *GuestService) issueCode(session *GuestSession) error {
	code, err := otpcode.Generate()
	if err != nil {
		return err
	}
	now := s.now()
	session.CodeHash = password.HashToken(code)
	session.ExpiresAt = now.Add(s.cfg.OTP.TTL)
	session.LastSent = now
	session.Attempts = 0
	return s.mailer.SendOTP(session.Email, code, session.ExpiresAt)
}

// BeginIntake validates the submitter's identity, burns the captcha and
// opens an OTP session. A prior session for the same email is replaced.
func (s *GuestService) BeginIntake(ctx context.Context, input *GuestIntakeInput) (*GuestIntakeResult, error) {
	// 1. Identity-field validation
	policy := domain.PolicyFor(domain.ModeGuest, s.cfg.Complaint.MinDescriptionLen)
	identity := &domain.ComplaintDraft{
		FullName:    input.FullName,
		Email:       input.Email,
		PhoneNumber: input.PhoneNumber,
	}
	if errs := policy.ValidateIdentity(identity); !errs.OK() {
		return nil, &DraftValidationError{Fields: errs}
	}

	// 2. Captcha gate. The challenge is single-use: a wrong answer
	// consumes it and the client must fetch a fresh one.
	if strings.TrimSpace(input.CaptchaID) == "" || strings.TrimSpace(input.CaptchaValue) == "" {
		return nil, ErrCaptchaRequired
	}
	if !s.captcha.Verify(input.CaptchaID, input.CaptchaValue) {
		return nil, ErrCaptchaInvalid
	}

	// 3. Open the session (replaces any prior one for this email)
	email := normalizeEmail(input.Email)
	session, err := s.sessions.NewSession(email, strings.TrimSpace(input.FullName), strings.TrimSpace(input.PhoneNumber))
	if err != nil {
		return nil, err
	}
	if res := session.fire(eventSubmit); res.Error != nil {
		return nil, res.Error
	}

	// 4. Generate and deliver the code
	if err := s.issueCode(session); err != nil {
		session.LastError = err.Error()
		session.fire(eventIntakeFailed)
		log.Printf("❌ Guest intake failed for %s: %v", email, err)
		return nil, ErrMailDelivery
	}
	session.fire(eventIntakeOK)

	log.Printf("🚀 Guest session opened for %s (expires in %ds)", email, session.RemainingSeconds(s.now()))
	return &GuestIntakeResult{
		SessionID:        session.ID,
		Email:            email,
		ExpiresAt:        session.ExpiresAt,
		ExpiresInSeconds: session.RemainingSeconds(s.now()),
		ResendsLeft:      s.cfg.OTP.MaxResends - session.Resends,
	}, nil
}

// VerifyOTP checks the submitted code and, on success, provisions the
// account and registers the complaint with its attachments. A wrong code
// keeps the session and draft intact for another attempt.
func (s *GuestService) VerifyOTP(ctx context.Context, email, code string, draft *domain.ComplaintDraft, uploads *upload.Manager) (*GuestVerifyResult, error) {
	email = normalizeEmail(email)
	session, ok := s.sessions.GetByEmail(email)
	if !ok {
		return nil, ErrSessionNotFound
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	// A verify that raced a replacing intake or a cancel must not act on
	// the session it looked up; only the registered one counts.
	if !s.sessions.IsActive(session) {
		return nil, ErrSessionNotFound
	}

	if session.State() != SessionAwaitingOtp {
		return nil, ErrVerifyNotPending
	}

	// Malformed input is a validation error, not a failed attempt; it
	// never reaches the machine or the attempt counter.
	normalized := otpcode.Normalize(code)
	if !otpcode.Valid(normalized) {
		return nil, ErrOTPMalformed
	}

	if res := session.fire(eventVerify); res.Error != nil || !res.Processed {
		return nil, ErrVerifyNotPending
	}

	// Expired codes fail regardless of correctness; the session survives
	// so a resend can revive it.
	now := s.now()
	if session.Expired(now) {
		session.fire(eventVerifyFailed)
		return nil, ErrOTPExpired
	}

	if password.HashToken(normalized) != session.CodeHash {
		session.Attempts++
		if session.Attempts >= s.cfg.OTP.MaxAttempts {
			session.fire(eventVerifyFailed)
			s.sessions.Remove(session)
			log.Printf("🛑 Guest session for %s invalidated after %d attempts", email, session.Attempts)
			return nil, ErrTooManyAttempts
		}
		session.fire(eventVerifyFailed)
		return nil, ErrOTPInvalid
	}

	// Code accepted. Identity comes from the session, not the request,
	// so the verified email cannot be swapped mid-flow.
	draft.FullName = session.FullName
	draft.Email = session.Email
	draft.PhoneNumber = session.Phone

	user, isNew, err := s.accounts.ProvisionGuest(ctx, session.FullName, session.Email, session.Phone)
	if err != nil {
		session.fire(eventVerifyFailed)
		return nil, err
	}

	complaint, err := s.complaints.Register(ctx, user.ID, draft, domain.ModeGuest)
	if err != nil {
		// Validation failures return to awaiting_otp without burning an
		// attempt; the code stays valid for the corrected re-submit.
		session.fire(eventVerifyFailed)
		return nil, err
	}

	var attachWarning string
	if uploads != nil && uploads.Count() > 0 {
		if err := s.complaints.AttachFiles(ctx, complaint, uploads, &user.ID); err != nil {
			log.Printf("⚠️ Attachment commit failed for %s: %v", complaint.TrackingNumber, err)
			attachWarning = "attachments could not be stored, the complaint was registered without them"
		}
	}

	tokens, err := s.accounts.IssueTokens(ctx, user)
	if err != nil {
		session.fire(eventVerifyFailed)
		return nil, err
	}

	session.fire(eventVerifyOK)
	// Late resend or verify results against this session are discarded
	// once it leaves the store.
	s.sessions.Remove(session)

	log.Printf("✅ Guest complaint %s verified for %s (new user: %t)", complaint.TrackingNumber, email, isNew)
	return &GuestVerifyResult{
		Complaint:    complaint.ToResponse(),
		User:         user.ToResponse(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		IsNewUser:    isNew,

		AttachmentsError: attachWarning,
	}, nil
}

// ResendOTP issues a fresh code for a session awaiting verification,
// honoring the cooldown and the per-session resend cap
func (s *GuestService) ResendOTP(ctx context.Context, email string) (*GuestIntakeResult, error) {
	email = normalizeEmail(email)
	session, ok := s.sessions.GetByEmail(email)
	if !ok {
		return nil, ErrSessionNotFound
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.State() != SessionAwaitingOtp {
		return nil, ErrVerifyNotPending
	}
	now := s.now()
	if now.Sub(session.LastSent) < s.cfg.OTP.ResendCooldown {
		return nil, ErrResendCooldown
	}
	if session.Resends >= s.cfg.OTP.MaxResends {
		s.sessions.Remove(session)
		return nil, ErrTooManyResends
	}

	if res := session.fire(eventResend); res.Error != nil || !res.Processed {
		return nil, ErrVerifyNotPending
	}

	if err := s.issueCode(session); err != nil {
		log.Printf("❌ OTP resend failed for %s: %v", email, err)
		return nil, ErrMailDelivery
	}
	// A replaced session must not have its counters touched by a late
	// resend that raced the replacement.
	if !s.sessions.IsActive(session) {
		return nil, ErrSessionNotFound
	}
	session.Resends++

	log.Printf("📧 OTP resent for %s (%d/%d)", email, session.Resends, s.cfg.OTP.MaxResends)
	return &GuestIntakeResult{
		SessionID:        session.ID,
		Email:            email,
		ExpiresAt:        session.ExpiresAt,
		ExpiresInSeconds: session.RemainingSeconds(s.now()),
		ResendsLeft:      s.cfg.OTP.MaxResends - session.Resends,
	}, nil
}

// Cancel abandons a pending session and releases it immediately
func (s *GuestService) Cancel(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	session, ok := s.sessions.GetByEmail(email)
	if !ok {
		return ErrSessionNotFound
	}
	session.mu.Lock()
	session.fire(eventCancel)
	session.mu.Unlock()
	s.sessions.Remove(session)
	log.Printf("🧹 Guest session for %s cancelled", email)
	return nil
}

// SweepSessions drops expired sessions (cron). Grace keeps just-expired
// sessions around long enough for the expired-code error to surface.
func (s *GuestService) SweepSessions() int {
	return s.sessions.SweepExpired(s.cfg.OTP.TTL)
}
