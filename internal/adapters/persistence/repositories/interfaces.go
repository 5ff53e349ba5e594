package repositories

import (
	"context"
	"time"

	"nagarseva/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ListByRole(ctx context.Context, role string, wardID *uint) ([]*models.User, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) error
}

// WardRepository defines ward/sub-zone reference data access
type WardRepository interface {
	ListActive(ctx context.Context) ([]*models.Ward, error)
	GetByID(ctx context.Context, id uint) (*models.Ward, error)
	HasSubZone(ctx context.Context, wardID, subZoneID uint) (bool, error)
	Upsert(ctx context.Context, ward *models.Ward) error
}

// ComplaintTypeRepository defines complaint type master access
type ComplaintTypeRepository interface {
	ListActive(ctx context.Context) ([]*models.ComplaintType, error)
	GetByCode(ctx context.Context, code string) (*models.ComplaintType, error)
	Upsert(ctx context.Context, ct *models.ComplaintType) error
}

// ComplaintFilter narrows complaint listings
type ComplaintFilter struct {
	UserID       *uint
	WardID       *uint
	AssignedToID *uint
	Status       string
	Category     string
}

// ComplaintRepository defines complaint repository interface
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *models.Complaint) error
	GetByID(ctx context.Context, id uint) (*models.Complaint, error)
	GetByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Complaint, error)
	Update(ctx context.Context, complaint *models.Complaint) error
	List(ctx context.Context, filter ComplaintFilter, offset, limit int) ([]*models.Complaint, int64, error)
	AddAttachments(ctx context.Context, attachments []models.ComplaintAttachment) error
	AddStatusLog(ctx context.Context, logEntry *models.ComplaintStatusLog) error
	CountAttachments(ctx context.Context, complaintID uint) (int64, error)
	MarkSLABreached(ctx context.Context, now time.Time) (int64, error)
}
