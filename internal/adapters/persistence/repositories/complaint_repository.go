package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"nagarseva/internal/adapters/persistence/models"
)

// complaintRepository implements ComplaintRepository interface
type complaintRepository struct {
	db *gorm.DB
}

// NewComplaintRepository creates a new complaint repository
func NewComplaintRepository(db *gorm.DB) ComplaintRepository {
	return &complaintRepository{db: db}
}

// Create creates a new complaint
func (r *complaintRepository) Create(ctx context.Context, complaint *models.Complaint) error {
	return r.db.WithContext(ctx).Create(complaint).Error
}

// GetByID gets a complaint with its relations
func (r *complaintRepository) GetByID(ctx context.Context, id uint) (*models.Complaint, error) {
	var complaint models.Complaint
	err := r.db.WithContext(ctx).
		Preload("Type").
		Preload("Ward").
		Preload("SubZone").
		Preload("AssignedTo").
		Preload("Attachments").
		Preload("StatusLogs").
		Where("id = ?", id).
		First(&complaint).Error
	if err != nil {
		return nil, err
	}
	return &complaint, nil
}

// GetByTrackingNumber gets a complaint by its public tracking number
func (r *complaintRepository) GetByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Complaint, error) {
	var complaint models.Complaint
	err := r.db.WithContext(ctx).
		Preload("Type").
		Preload("Ward").
		Where("tracking_number = ?", trackingNumber).
		First(&complaint).Error
	if err != nil {
		return nil, err
	}
	return &complaint, nil
}

// Update updates a complaint
func (r *complaintRepository) Update(ctx context.Context, complaint *models.Complaint) error {
	return r.db.WithContext(ctx).Save(complaint).Error
}

// List lists complaints matching the filter, newest first
func (r *complaintRepository) List(ctx context.Context, filter ComplaintFilter, offset, limit int) ([]*models.Complaint, int64, error) {
	var complaints []*models.Complaint
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Complaint{})
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.WardID != nil {
		q = q.Where("ward_id = ?", *filter.WardID)
	}
	if filter.AssignedToID != nil {
		q = q.Where("assigned_to_id = ?", *filter.AssignedToID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		q = q.Joins("JOIN complaint_types ON complaint_types.id = complaints.type_id").
			Where("complaint_types.code = ?", filter.Category)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.
		Preload("Type").
		Preload("Ward").
		Preload("SubZone").
		Preload("AssignedTo").
		Order("complaints.created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&complaints).Error
	return complaints, total, err
}

// AddAttachments stores attachment rows for a complaint
func (r *complaintRepository) AddAttachments(ctx context.Context, attachments []models.ComplaintAttachment) error {
	if len(attachments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&attachments).Error
}

// AddStatusLog appends a status transition to the audit trail
func (r *complaintRepository) AddStatusLog(ctx context.Context, logEntry *models.ComplaintStatusLog) error {
	return r.db.WithContext(ctx).Create(logEntry).Error
}

// CountAttachments counts the stored attachments of a complaint
func (r *complaintRepository) CountAttachments(ctx context.Context, complaintID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ComplaintAttachment{}).
		Where("complaint_id = ?", complaintID).
		Count(&count).Error
	return count, err
}

// MarkSLABreached flags open complaints past their SLA due date.
// Returns the number of rows updated.
func (r *complaintRepository) MarkSLABreached(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Complaint{}).
		Where("sla_breached = ? AND sla_due_at < ? AND status NOT IN ?",
			false, now, []string{"RESOLVED", "CLOSED"}).
		Update("sla_breached", true)
	return res.RowsAffected, res.Error
}
