package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"nagarseva/internal/adapters/persistence/models"
)

// complaintTypeRepository implements ComplaintTypeRepository interface
type complaintTypeRepository struct {
	db *gorm.DB
}

// NewComplaintTypeRepository creates a new complaint type repository
func NewComplaintTypeRepository(db *gorm.DB) ComplaintTypeRepository {
	return &complaintTypeRepository{db: db}
}

// ListActive returns active complaint types ordered by code
func (r *complaintTypeRepository) ListActive(ctx context.Context) ([]*models.ComplaintType, error) {
	var types []*models.ComplaintType
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("code ASC").
		Find(&types).Error
	return types, err
}

// GetByCode gets a complaint type by its category code
func (r *complaintTypeRepository) GetByCode(ctx context.Context, code string) (*models.ComplaintType, error) {
	var ct models.ComplaintType
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&ct).Error
	if err != nil {
		return nil, err
	}
	return &ct, nil
}

// Upsert creates the type if its code is new (used by the seeder)
func (r *complaintTypeRepository) Upsert(ctx context.Context, ct *models.ComplaintType) error {
	var existing models.ComplaintType
	err := r.db.WithContext(ctx).Where("code = ?", ct.Code).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(ct).Error
	}
	return err
}
