package services

import (
	"errors"
	"strings"

	"github.com/mojocn/base64Captcha"

	"nagarseva/internal/config"
)

// Captcha errors
var (
	ErrCaptchaRequired = errors.New("captcha is required")
	ErrCaptchaInvalid  = errors.New("captcha verification failed, please try again")
)

// CaptchaVerifier is the part of the captcha service the guest flow needs
type CaptchaVerifier interface {
	Verify(id, answer string) bool
}

// Challenge is an issued captcha challenge
type Challenge struct {
	CaptchaID    string `json:"captchaId"`
	CaptchaImage string `json:"captchaImage"` // base64 data URI
}

// CaptchaService issues and verifies visual challenges. Challenges are
// single-use: any intake attempt consumes the challenge, so a failed
// attempt forces a refresh.
type CaptchaService struct {
	driver base64Captcha.Driver
	store  base64Captcha.Store
}

// NewCaptchaService creates a captcha service with an in-memory store
func NewCaptchaService(cfg *config.Config) *CaptchaService {
	driver := base64Captcha.NewDriverString(
		46,  // height
		140, // width
		2,   // noise count
		base64Captcha.OptionShowHollowLine,
		cfg.Captcha.Length,
		"234567abcdefghjkmnpqrstuvwxyz", // no ambiguous glyphs
		nil, nil, nil,
	)
	store := base64Captcha.NewMemoryStore(base64Captcha.GCLimitNumber, cfg.Captcha.TTL)
	return &CaptchaService{driver: driver, store: store}
}

// Generate issues a fresh challenge. Refreshing is just generating again;
// the abandoned challenge ages out of the store.
func (s *CaptchaService) Generate() (*Challenge, error) {
	id, content, answer := s.driver.GenerateIdQuestionAnswer()
	item, err := s.driver.DrawCaptcha(content)
	if err != nil {
		return nil, err
	}
	if err := s.store.Set(id, answer); err != nil {
		return nil, err
	}
	return &Challenge{
		CaptchaID:    id,
		CaptchaImage: item.EncodeB64string(),
	}, nil
}

// Verify checks and consumes a challenge. Case-insensitive; a wrong
// answer still consumes the challenge.
func (s *CaptchaService) Verify(id, answer string) bool {
	if id == "" || strings.TrimSpace(answer) == "" {
		return false
	}
	return s.store.Verify(id, strings.ToLower(strings.TrimSpace(answer)), true)
}
