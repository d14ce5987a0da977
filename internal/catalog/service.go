package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mgastelum/storefront-backend/pkg/db"
	"github.com/mgastelum/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mgastelum/storefront-backend/pkg/errors"
)

// CatalogRepository abstracts category and brand persistence.
type CatalogRepository interface {
	ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error)
	FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	CreateCategory(ctx context.Context, record *models.Category) (*models.Category, error)
	UpdateCategory(ctx context.Context, record *models.Category) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	ListBrands(ctx context.Context) ([]models.Brand, error)
	FindBrandByID(ctx context.Context, id uuid.UUID) (*models.Brand, error)
	CreateBrand(ctx context.Context, record *models.Brand) (*models.Brand, error)
	UpdateBrand(ctx context.Context, record *models.Brand) (*models.Brand, error)
	DeleteBrand(ctx context.Context, id uuid.UUID) error
}

// Service exposes category and brand reads for the storefront and CRUD for
// the admin.
type Service interface {
	ListCategories(ctx context.Context, includeInactive bool) ([]CategoryDTO, error)
	CreateCategory(ctx context.Context, input CategoryInput) (CategoryDTO, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (CategoryDTO, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	ListBrands(ctx context.Context) ([]BrandDTO, error)
	CreateBrand(ctx context.Context, input BrandInput) (BrandDTO, error)
	UpdateBrand(ctx context.Context, id uuid.UUID, input BrandInput) (BrandDTO, error)
	DeleteBrand(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo CatalogRepository
}

// NewService builds a catalog service.
func NewService(repo CatalogRepository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog repo is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListCategories(ctx context.Context, includeInactive bool) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx, !includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toCategoryDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) CreateCategory(ctx context.Context, input CategoryInput) (CategoryDTO, error) {
	record := &models.Category{
		Name:        strings.TrimSpace(input.Name),
		Slug:        strings.TrimSpace(input.Slug),
		Description: input.Description,
		Position:    input.Position,
		IsActive:    true,
	}
	if input.IsActive != nil {
		record.IsActive = *input.IsActive
	}

	created, err := s.repo.CreateCategory(ctx, record)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return CategoryDTO{}, pkgerrors.New(pkgerrors.CodeConflict, "category slug already exists")
		}
		return CategoryDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	return toCategoryDTO(created), nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (CategoryDTO, error) {
	record, err := s.findCategory(ctx, id)
	if err != nil {
		return CategoryDTO{}, err
	}

	record.Name = strings.TrimSpace(input.Name)
	record.Slug = strings.TrimSpace(input.Slug)
	record.Description = input.Description
	record.Position = input.Position
	if input.IsActive != nil {
		record.IsActive = *input.IsActive
	}

	updated, err := s.repo.UpdateCategory(ctx, record)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return CategoryDTO{}, pkgerrors.New(pkgerrors.CodeConflict, "category slug already exists")
		}
		return CategoryDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update category")
	}
	return toCategoryDTO(updated), nil
}

func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.findCategory(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
	}
	return nil
}

func (s *service) ListBrands(ctx context.Context) ([]BrandDTO, error) {
	rows, err := s.repo.ListBrands(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list brands")
	}
	out := make([]BrandDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toBrandDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) CreateBrand(ctx context.Context, input BrandInput) (BrandDTO, error) {
	record := &models.Brand{
		Name:    strings.TrimSpace(input.Name),
		Slug:    strings.TrimSpace(input.Slug),
		LogoURL: input.LogoURL,
	}

	created, err := s.repo.CreateBrand(ctx, record)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return BrandDTO{}, pkgerrors.New(pkgerrors.CodeConflict, "brand slug already exists")
		}
		return BrandDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create brand")
	}
	return toBrandDTO(created), nil
}

func (s *service) UpdateBrand(ctx context.Context, id uuid.UUID, input BrandInput) (BrandDTO, error) {
	record, err := s.findBrand(ctx, id)
	if err != nil {
		return BrandDTO{}, err
	}

	record.Name = strings.TrimSpace(input.Name)
	record.Slug = strings.TrimSpace(input.Slug)
	record.LogoURL = input.LogoURL

	updated, err := s.repo.UpdateBrand(ctx, record)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return BrandDTO{}, pkgerrors.New(pkgerrors.CodeConflict, "brand slug already exists")
		}
		return BrandDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update brand")
	}
	return toBrandDTO(updated), nil
}

func (s *service) DeleteBrand(ctx context.Context, id uuid.UUID) error {
	if _, err := s.findBrand(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteBrand(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete brand")
	}
	return nil
}

func (s *service) findCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	record, err := s.repo.FindCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	return record, nil
}

func (s *service) findBrand(ctx context.Context, id uuid.UUID) (*models.Brand, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "brand id is required")
	}
	record, err := s.repo.FindBrandByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "brand not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load brand")
	}
	return record, nil
}
