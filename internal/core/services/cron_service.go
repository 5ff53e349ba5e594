package services

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"nagarseva/internal/adapters/persistence/repositories"
	"nagarseva/internal/config"
)

// CronService runs the periodic housekeeping jobs
type CronService struct {
	cron       *cron.Cron
	guests     *GuestService
	complaints *ComplaintService
	tokenRepo  repositories.RefreshTokenRepository
	cfg        *config.Config
}

// NewCronService creates a new cron service
func NewCronService(
	guests *GuestService,
	complaints *ComplaintService,
	tokenRepo repositories.RefreshTokenRepository,
	cfg *config.Config,
) *CronService {
	return &CronService{
		cron:       cron.New(),
		guests:     guests,
		complaints: complaints,
		tokenRepo:  tokenRepo,
		cfg:        cfg,
	}
}

// Start registers and starts all scheduled jobs
func (s *CronService) Start() error {
	// Expired guest sessions, every 5 minutes
	if _, err := s.cron.AddFunc("*/5 * * * *", s.sweepSessions); err != nil {
		return err
	}

	// Orphaned staging files, hourly
	if _, err := s.cron.AddFunc("0 * * * *", s.sweepStaging); err != nil {
		return err
	}

	// SLA breach marking, hourly
	if _, err := s.cron.AddFunc("30 * * * *", s.markOverdue); err != nil {
		return err
	}

	// Expired refresh tokens, daily at 03:00
	if _, err := s.cron.AddFunc("0 3 * * *", s.purgeTokens); err != nil {
		return err
	}

	s.cron.Start()
	log.Println("🚀 Cron service started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("🛑 Cron service stopped")
}

func (s *CronService) sweepSessions() {
	if n := s.guests.SweepSessions(); n > 0 {
		log.Printf("🧹 Swept %d expired guest sessions", n)
	}
}

// sweepStaging removes staged upload files older than twice the session
// TTL. Live sessions never hold files that long; anything older is an
// abandoned verify request.
func (s *CronService) sweepStaging() {
	cutoff := time.Now().Add(-2 * s.cfg.OTP.TTL)
	removed := 0

	entries, err := os.ReadDir(s.cfg.Upload.StagingDir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.cfg.Upload.StagingDir, entry.Name())); err == nil {
				removed++
			}
		}
	}
	if removed > 0 {
		log.Printf("🧹 Removed %d orphaned staging files", removed)
	}
}

func (s *CronService) markOverdue() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.complaints.MarkOverdue(ctx)
	if err != nil {
		log.Printf("❌ SLA sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("⚠️ Marked %d complaints as SLA-breached", n)
	}
}

func (s *CronService) purgeTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.tokenRepo.DeleteExpired(ctx); err != nil {
		log.Printf("❌ Refresh token purge failed: %v", err)
		return
	}
	log.Println("🧹 Expired refresh tokens purged")
}
