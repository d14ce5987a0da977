package banners

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mgastelum/storefront-backend/pkg/db/models"
	"github.com/mgastelum/storefront-backend/pkg/enums"
)

// Repository persists banners.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a banner repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListLive returns active banners whose date window covers now, for one
// placement, in display order.
func (r *Repository) ListLive(ctx context.Context, placement enums.BannerPlacement, now time.Time) ([]models.Banner, error) {
	var rows []models.Banner
	err := r.db.WithContext(ctx).
		Where("placement = ? AND is_active = true", placement).
		Where("(starts_at IS NULL OR starts_at <= ?)", now).
		Where("(ends_at IS NULL OR ends_at >= ?)", now).
		Order("position ASC, created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListAll returns every banner for the admin, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]models.Banner, error) {
	var rows []models.Banner
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByID loads one banner.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Banner, error) {
	var record models.Banner
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts a banner.
func (r *Repository) Create(ctx context.Context, record *models.Banner) (*models.Banner, error) {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// Update saves the provided banner.
func (r *Repository) Update(ctx context.Context, record *models.Banner) (*models.Banner, error) {
	if err := r.db.WithContext(ctx).Save(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// Delete removes a banner.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Banner{}).Error
}
