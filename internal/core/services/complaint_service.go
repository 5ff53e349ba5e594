package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"nagarseva/internal/adapters/persistence/models"
	"nagarseva/internal/adapters/persistence/repositories"
	"nagarseva/internal/config"
	"nagarseva/internal/core/domain"
	"nagarseva/internal/pkg/upload"
)

// Complaint errors
var (
	ErrComplaintNotFound       = errors.New("complaint not found")
	ErrWardNotFound            = errors.New("selected ward does not exist")
	ErrSubZoneNotFound         = errors.New("selected sub-zone does not belong to the ward")
	ErrComplaintTypeNotFound   = errors.New("unknown complaint type")
	ErrInvalidStatusTransition = errors.New("status transition not allowed")
	ErrNotAssignee             = errors.New("complaint is not assigned to this user")
	ErrAttachmentCapReached    = errors.New("attachment limit reached for this complaint")
)

// DraftValidationError carries the per-field error map of a rejected
// draft through the service boundary
type DraftValidationError struct {
	Fields domain.FieldErrors
}

func (e *DraftValidationError) Error() string {
	return fmt.Sprintf("draft validation failed on %d fields", len(e.Fields))
}

// ComplaintService handles complaint registration and lifecycle
type ComplaintService struct {
	complaintRepo repositories.ComplaintRepository
	typeRepo      repositories.ComplaintTypeRepository
	wardRepo      repositories.WardRepository
	userRepo      repositories.UserRepository
	cfg           *config.Config
}

// NewComplaintService creates a new complaint service
func NewComplaintService(
	complaintRepo repositories.ComplaintRepository,
	typeRepo repositories.ComplaintTypeRepository,
	wardRepo repositories.WardRepository,
	userRepo repositories.UserRepository,
	cfg *config.Config,
) *ComplaintService {
	return &ComplaintService{
		complaintRepo: complaintRepo,
		typeRepo:      typeRepo,
		wardRepo:      wardRepo,
		userRepo:      userRepo,
		cfg:           cfg,
	}
}

// newTrackingNumber builds a public complaint reference like NGS-2026-4F9A21C7
func newTrackingNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]
	return fmt.Sprintf("NGS-%d-%s", now.Year(), suffix)
}

// Register validates a draft against the mode's policy and persists the
// complaint. Attachments are committed separately once the row exists.
func (s *ComplaintService) Register(ctx context.Context, userID uint, draft *domain.ComplaintDraft, mode domain.SubmissionMode) (*models.Complaint, error) {
	// 1. Resolve ward and whether it exposes sub-zones
	ward, err := s.wardRepo.GetByID(ctx, draft.WardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWardNotFound
		}
		return nil, err
	}
	draft.WardHasSubZones = ward.HasSubZones()

	// 2. Full-draft validation under the mode's policy
	policy := domain.PolicyFor(mode, s.cfg.Complaint.MinDescriptionLen)
	if errs := policy.ValidateAll(draft); !errs.OK() {
		return nil, &DraftValidationError{Fields: errs}
	}

	// 3. Sub-zone must belong to the selected ward
	if draft.SubZoneID != nil {
		ok, err := s.wardRepo.HasSubZone(ctx, draft.WardID, *draft.SubZoneID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrSubZoneNotFound
		}
	}

	// 4. Resolve complaint type; derive priority when the draft left it blank
	ct, err := s.typeRepo.GetByCode(ctx, string(draft.Category))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrComplaintTypeNotFound
		}
		return nil, err
	}
	priority := string(draft.Priority)
	if priority == "" {
		priority = ct.DefaultPriority
	}

	// 5. Build and persist
	now := time.Now()
	complaint := &models.Complaint{
		TrackingNumber: newTrackingNumber(now),
		UserID:         userID,
		TypeID:         ct.ID,
		Description:    strings.TrimSpace(draft.Description),
		Priority:       priority,
		Status:         string(domain.StatusRegistered),
		WardID:         draft.WardID,
		SubZoneID:      draft.SubZoneID,
		Area:           strings.TrimSpace(draft.Area),
		Landmark:       strings.TrimSpace(draft.Landmark),
		Address:        strings.TrimSpace(draft.Address),
		GuestSubmitted: mode == domain.ModeGuest,
		SLADueAt:       now.Add(time.Duration(ct.SLAHours) * time.Hour),
	}
	if draft.Coordinates != nil {
		lat, lng := draft.Coordinates.Latitude, draft.Coordinates.Longitude
		complaint.Latitude = &lat
		complaint.Longitude = &lng
	}

	if err := s.complaintRepo.Create(ctx, complaint); err != nil {
		return nil, err
	}

	// 6. Audit trail starts at registration
	_ = s.complaintRepo.AddStatusLog(ctx, &models.ComplaintStatusLog{
		ComplaintID: complaint.ID,
		ToStatus:    string(domain.StatusRegistered),
		Note:        "Complaint registered",
	})

	log.Printf("✅ Complaint registered: %s (ward %d, type %s)", complaint.TrackingNumber, complaint.WardID, ct.Code)
	return complaint, nil
}

// AttachFiles commits staged uploads into permanent storage and records
// the attachment rows
func (s *ComplaintService) AttachFiles(ctx context.Context, complaint *models.Complaint, mgr *upload.Manager, uploadedBy *uint) error {
	dest := filepath.Join(s.cfg.Upload.StorageDir, complaint.TrackingNumber)
	committed, err := mgr.Commit(dest)
	if err != nil {
		return err
	}

	rows := make([]models.ComplaintAttachment, 0, len(committed))
	for _, f := range committed {
		rows = append(rows, models.ComplaintAttachment{
			ComplaintID: complaint.ID,
			FileName:    f.FileName,
			StoredPath:  f.Path,
			MimeType:    f.MimeType,
			SizeBytes:   f.SizeBytes,
			UploadedBy:  uploadedBy,
		})
	}
	return s.complaintRepo.AddAttachments(ctx, rows)
}

// GetByID fetches a complaint with relations
func (s *ComplaintService) GetByID(ctx context.Context, id uint) (*models.Complaint, error) {
	complaint, err := s.complaintRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrComplaintNotFound
		}
		return nil, err
	}
	return complaint, nil
}

// Track fetches the public view of a complaint by tracking number
func (s *ComplaintService) Track(ctx context.Context, trackingNumber string) (*models.TrackingResponse, error) {
	complaint, err := s.complaintRepo.GetByTrackingNumber(ctx, strings.ToUpper(strings.TrimSpace(trackingNumber)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrComplaintNotFound
		}
		return nil, err
	}
	return complaint.ToTrackingResponse(), nil
}

// List lists complaints for the given filter
func (s *ComplaintService) List(ctx context.Context, filter repositories.ComplaintFilter, offset, limit int) ([]*models.Complaint, int64, error) {
	return s.complaintRepo.List(ctx, filter, offset, limit)
}

// Assign assigns a complaint to a maintenance user and moves it to ASSIGNED
func (s *ComplaintService) Assign(ctx context.Context, complaintID, assigneeID uint, byUserID uint) (*models.Complaint, error) {
	complaint, err := s.GetByID(ctx, complaintID)
	if err != nil {
		return nil, err
	}

	assignee, err := s.userRepo.GetByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	from := domain.ComplaintStatus(complaint.Status)
	if !domain.CanTransition(from, domain.StatusAssigned) {
		return nil, ErrInvalidStatusTransition
	}

	complaint.AssignedToID = &assignee.ID
	complaint.Status = string(domain.StatusAssigned)
	if err := s.complaintRepo.Update(ctx, complaint); err != nil {
		return nil, err
	}

	_ = s.complaintRepo.AddStatusLog(ctx, &models.ComplaintStatusLog{
		ComplaintID: complaint.ID,
		FromStatus:  string(from),
		ToStatus:    string(domain.StatusAssigned),
		ChangedBy:   &byUserID,
		Note:        "Assigned to " + assignee.FullName,
	})

	return complaint, nil
}

// UpdateStatus moves a complaint along its lifecycle, enforcing the
// transition table and recording the audit log
func (s *ComplaintService) UpdateStatus(ctx context.Context, complaintID uint, to domain.ComplaintStatus, byUserID uint, note string) (*models.Complaint, error) {
	complaint, err := s.GetByID(ctx, complaintID)
	if err != nil {
		return nil, err
	}

	from := domain.ComplaintStatus(complaint.Status)
	if !domain.CanTransition(from, to) {
		return nil, ErrInvalidStatusTransition
	}

	now := time.Now()
	complaint.Status = string(to)
	switch to {
	case domain.StatusResolved:
		complaint.ResolvedAt = &now
	case domain.StatusClosed:
		complaint.ClosedAt = &now
	case domain.StatusReopened:
		complaint.ResolvedAt = nil
		complaint.ClosedAt = nil
	}

	if err := s.complaintRepo.Update(ctx, complaint); err != nil {
		return nil, err
	}

	_ = s.complaintRepo.AddStatusLog(ctx, &models.ComplaintStatusLog{
		ComplaintID: complaint.ID,
		FromStatus:  string(from),
		ToStatus:    string(to),
		ChangedBy:   &byUserID,
		Note:        note,
	})

	log.Printf("✅ Complaint %s: %s → %s", complaint.TrackingNumber, from, to)
	return complaint, nil
}

// UpdateStatusByAssignee lets the assigned maintenance user progress
// their own complaint. Only IN_PROGRESS and RESOLVED are reachable here;
// closing and reopening stay with the ward officer.
func (s *ComplaintService) UpdateStatusByAssignee(ctx context.Context, complaintID uint, byUserID uint, to domain.ComplaintStatus, note string) (*models.Complaint, error) {
	complaint, err := s.GetByID(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if complaint.AssignedToID == nil || *complaint.AssignedToID != byUserID {
		return nil, ErrNotAssignee
	}
	if to != domain.StatusInProgress && to != domain.StatusResolved {
		return nil, ErrInvalidStatusTransition
	}
	return s.UpdateStatus(ctx, complaintID, to, byUserID, note)
}

// AddWorkPhotos attaches maintenance photos to an assigned complaint,
// honoring the maintenance upload cap against already-stored files
func (s *ComplaintService) AddWorkPhotos(ctx context.Context, complaintID uint, byUserID uint, mgr *upload.Manager) (*models.Complaint, error) {
	complaint, err := s.GetByID(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if complaint.AssignedToID == nil || *complaint.AssignedToID != byUserID {
		return nil, ErrNotAssignee
	}

	existing, err := s.complaintRepo.CountAttachments(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if int(existing)+mgr.Count() > s.cfg.Upload.CitizenMaxFiles+s.cfg.Upload.MaintMaxFiles {
		return nil, ErrAttachmentCapReached
	}

	if err := s.AttachFiles(ctx, complaint, mgr, &byUserID); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, complaintID)
}

// MarkOverdue flags open complaints past their SLA due date (cron)
func (s *ComplaintService) MarkOverdue(ctx context.Context) (int64, error) {
	return s.complaintRepo.MarkSLABreached(ctx, time.Now())
}
