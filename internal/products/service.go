package products

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mgastelum/storefront-backend/pkg/db"
	"github.com/mgastelum/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mgastelum/storefront-backend/pkg/errors"
	"github.com/mgastelum/storefront-backend/pkg/pagination"
)

// ProductRepository abstracts product persistence for the service layer.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindActiveBySlug(ctx context.Context, slug string) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	List(ctx context.Context, params ListParams) ([]models.Product, *pagination.Cursor, error)
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service exposes catalog reads for the storefront and CRUD for the admin.
type Service interface {
	List(ctx context.Context, params ListParams) (ProductPageDTO, error)
	GetByIDOrSlug(ctx context.Context, idOrSlug string) (ProductDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (ProductDTO, error)
	Create(ctx context.Context, input CreateProductInput) (ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ServiceParams groups dependencies for the product service.
type ServiceParams struct {
	Repo ProductRepository
	Now  func() time.Time
}

type service struct {
	repo ProductRepository
	now  func() time.Time
}

// NewService builds a product service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product repo is required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{repo: params.Repo, now: params.Now}, nil
}

// List returns the storefront product page with live offer prices applied.
func (s *service) List(ctx context.Context, params ListParams) (ProductPageDTO, error) {
	rows, next, err := s.repo.List(ctx, params)
	if err != nil {
		return ProductPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	now := s.now()
	page := ProductPageDTO{Items: make([]ProductDTO, 0, len(rows))}
	for i := range rows {
		page.Items = append(page.Items, toProductDTO(&rows[i], now))
	}
	if next != nil {
		encoded := pagination.EncodeCursor(*next)
		page.NextCursor = &encoded
	}
	return page, nil
}

// GetByIDOrSlug returns an active product for storefront display. A path
// segment that parses as a UUID is treated as an id, anything else as a slug.
func (s *service) GetByIDOrSlug(ctx context.Context, idOrSlug string) (ProductDTO, error) {
	idOrSlug = strings.TrimSpace(idOrSlug)
	if idOrSlug == "" {
		return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "product id or slug is required")
	}

	var (
		product *models.Product
		err     error
	)
	if id, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		product, err = s.repo.FindActiveByID(ctx, id)
	} else {
		product, err = s.repo.FindActiveBySlug(ctx, idOrSlug)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProductDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return toProductDTO(product, s.now()), nil
}

// GetByID returns any product, active or not. Admin use.
func (s *service) GetByID(ctx context.Context, id uuid.UUID) (ProductDTO, error) {
	if id == uuid.Nil {
		return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProductDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return toProductDTO(product, s.now()), nil
}

// Create inserts a new product from the admin payload.
func (s *service) Create(ctx context.Context, input CreateProductInput) (ProductDTO, error) {
	offer, err := parseOfferPercent(input.OfferPercentOff)
	if err != nil {
		return ProductDTO{}, err
	}
	if err := validateOfferWindow(input.OfferStartsAt, input.OfferEndsAt); err != nil {
		return ProductDTO{}, err
	}

	product := &models.Product{
		SKU:             strings.TrimSpace(input.SKU),
		Slug:            strings.TrimSpace(input.Slug),
		Title:           strings.TrimSpace(input.Title),
		Description:     input.Description,
		CategoryID:      input.CategoryID,
		BrandID:         input.BrandID,
		PriceCents:      input.PriceCents,
		StockQty:        input.StockQty,
		IsActive:        true,
		OfferPercentOff: offer,
		OfferStartsAt:   input.OfferStartsAt,
		OfferEndsAt:     input.OfferEndsAt,
		Images:          input.Images,
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ProductDTO{}, pkgerrors.New(pkgerrors.CodeConflict, "product sku or slug already exists")
		}
		return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return toProductDTO(created, s.now()), nil
}

// Update applies the non-nil admin edits to an existing product.
func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (ProductDTO, error) {
	if id == uuid.Nil {
		return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProductDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	if input.Title != nil {
		product.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.CategoryID != nil {
		product.CategoryID = input.CategoryID
	}
	if input.BrandID != nil {
		product.BrandID = input.BrandID
	}
	if input.PriceCents != nil {
		product.PriceCents = *input.PriceCents
	}
	if input.StockQty != nil {
		product.StockQty = *input.StockQty
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.OfferPercentOff != nil {
		offer, err := parseOfferPercent(input.OfferPercentOff)
		if err != nil {
			return ProductDTO{}, err
		}
		product.OfferPercentOff = offer
	}
	if input.OfferStartsAt != nil {
		product.OfferStartsAt = input.OfferStartsAt
	}
	if input.OfferEndsAt != nil {
		product.OfferEndsAt = input.OfferEndsAt
	}
	if err := validateOfferWindow(product.OfferStartsAt, product.OfferEndsAt); err != nil {
		return ProductDTO{}, err
	}
	if input.Images != nil {
		product.Images = input.Images
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ProductDTO{}, pkgerrors.New(pkgerrors.CodeConflict, "product sku or slug already exists")
		}
		return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return toProductDTO(updated, s.now()), nil
}

// Delete removes a product permanently.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func parseOfferPercent(raw *string) (*decimal.Decimal, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer_percent_off must be a decimal number")
	}
	if value.LessThanOrEqual(decimal.Zero) || value.GreaterThan(oneHundred) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer_percent_off must be between 0 and 100")
	}
	return &value, nil
}

func validateOfferWindow(startsAt, endsAt *time.Time) error {
	if startsAt != nil && endsAt != nil && endsAt.Before(*startsAt) {
		return pkgerrors.New(pkgerrors.CodeValidation, "offer window ends before it starts")
	}
	return nil
}
