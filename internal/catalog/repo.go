package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mgastelum/storefront-backend/pkg/db/models"
)

// Repository persists categories and brands.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListCategories returns categories by display position. activeOnly hides
// disabled rows for storefront calls.
func (r *Repository) ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	query := r.db.WithContext(ctx)
	if activeOnly {
		query = query.Where("is_active = true")
	}
	var rows []models.Category
	if err := query.Order("position ASC, name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindCategoryByID loads one category.
func (r *Repository) FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var record models.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// CreateCategory inserts a category.
func (r *Repository) CreateCategory(ctx context.Context, record *models.Category) (*models.Category, error) {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// UpdateCategory saves the provided category.
func (r *Repository) UpdateCategory(ctx context.Context, record *models.Category) (*models.Category, error) {
	if err := r.db.WithContext(ctx).Save(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// DeleteCategory removes a category.
func (r *Repository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{}).Error
}

// ListBrands returns all brands alphabetically.
func (r *Repository) ListBrands(ctx context.Context) ([]models.Brand, error) {
	var rows []models.Brand
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindBrandByID loads one brand.
func (r *Repository) FindBrandByID(ctx context.Context, id uuid.UUID) (*models.Brand, error) {
	var record models.Brand
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// CreateBrand inserts a brand.
func (r *Repository) CreateBrand(ctx context.Context, record *models.Brand) (*models.Brand, error) {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// UpdateBrand saves the provided brand.
func (r *Repository) UpdateBrand(ctx context.Context, record *models.Brand) (*models.Brand, error) {
	if err := r.db.WithContext(ctx).Save(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// DeleteBrand removes a brand.
func (r *Repository) DeleteBrand(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Brand{}).Error
}
