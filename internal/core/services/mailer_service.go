package services

import (
	"fmt"
	"log"
	"time"

	"gopkg.in/gomail.v2"

	"nagarseva/internal/config"
)

// OTPMailer delivers one-time passcodes to guest submitters
type OTPMailer interface {
	SendOTP(email, code string, expiresAt time.Time) error
}

// MailerService sends transactional mail over SMTP
type MailerService struct {
	cfg    config.SMTPConfig
	dialer *gomail.Dialer
}

// NewMailerService creates a mailer. Without SMTP_HOST it runs disabled
// and logs the codes instead, which is what dev environments want.
func NewMailerService(cfg *config.Config) *MailerService {
	s := &MailerService{cfg: cfg.SMTP}
	if cfg.SMTP.Enabled {
		s.dialer = gomail.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password)
	} else {
		log.Println("⚠️ SMTP not configured, OTP mails will be logged instead of sent")
	}
	return s
}

// SendOTP emails a verification code to a guest submitter
func (s *MailerService) SendOTP(email, code string, expiresAt time.Time) error {
	minutes := int(time.Until(expiresAt).Round(time.Minute).Minutes())
	if s.dialer == nil {
		log.Printf("📧 [dev] OTP for %s: %s (valid %d minutes)", email, code, minutes)
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Your NagarSeva verification code")
	m.SetBody("text/plain", fmt.Sprintf(
		"Your verification code is %s.\n\nIt is valid for %d minutes. If you did not request this, please ignore this mail.\n\nNagarSeva Municipal Complaint Portal",
		code, minutes,
	))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send otp mail: %w", err)
	}
	return nil
}
