package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"nagarseva/internal/adapters/persistence/models"
)

// wardRepository implements WardRepository interface
type wardRepository struct {
	db *gorm.DB
}

// NewWardRepository creates a new ward repository
func NewWardRepository(db *gorm.DB) WardRepository {
	return &wardRepository{db: db}
}

// ListActive returns active wards with their sub-zones embedded
func (r *wardRepository) ListActive(ctx context.Context) ([]*models.Ward, error) {
	var wards []*models.Ward
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Preload("SubZones", "is_active = ?", true).
		Order("code ASC").
		Find(&wards).Error
	return wards, err
}

// GetByID gets a ward with its sub-zones
func (r *wardRepository) GetByID(ctx context.Context, id uint) (*models.Ward, error) {
	var ward models.Ward
	err := r.db.WithContext(ctx).
		Preload("SubZones", "is_active = ?", true).
		Where("id = ?", id).
		First(&ward).Error
	if err != nil {
		return nil, err
	}
	return &ward, nil
}

// HasSubZone checks that a sub-zone belongs to the given ward
func (r *wardRepository) HasSubZone(ctx context.Context, wardID, subZoneID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SubZone{}).
		Where("id = ? AND ward_id = ? AND is_active = ?", subZoneID, wardID, true).
		Count(&count).Error
	return count > 0, err
}

// Upsert creates the ward if its code is new (used by the seeder)
func (r *wardRepository) Upsert(ctx context.Context, ward *models.Ward) error {
	var existing models.Ward
	err := r.db.WithContext(ctx).Where("code = ?", ward.Code).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(ward).Error
	}
	return err
}
