package settings

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mgastelum/storefront-backend/pkg/db/models"
)

// Repository persists settings rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a settings repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByKey loads one setting.
func (r *Repository) FindByKey(ctx context.Context, key string) (*models.Setting, error) {
	var record models.Setting
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns every setting ordered by group then key.
func (r *Repository) List(ctx context.Context) ([]models.Setting, error) {
	var rows []models.Setting
	err := r.db.WithContext(ctx).
		Order("group_name ASC, key ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByGroup returns the settings in one group ordered by key.
func (r *Repository) ListByGroup(ctx context.Context, group string) ([]models.Setting, error) {
	var rows []models.Setting
	err := r.db.WithContext(ctx).
		Where("group_name = ?", group).
		Order("key ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByKeys loads the given keys in one round trip.
func (r *Repository) FindByKeys(ctx context.Context, keys []string) ([]models.Setting, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	var rows []models.Setting
	if err := r.db.WithContext(ctx).Where("key IN ?", keys).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Upsert creates the key or, when it already exists, updates only its value.
// Type and group on an existing row are left alone.
func (r *Repository) Upsert(ctx context.Context, record *models.Setting) (*models.Setting, error) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"value":      record.Value,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(record).Error
	if err != nil {
		return nil, err
	}
	// re-read so callers see the surviving type/group on updates
	return r.FindByKey(ctx, record.Key)
}
