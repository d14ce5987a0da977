package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/mgastelum/storefront-backend/pkg/db/models"
)

// ProductDTO is the storefront shape of a product. OfferPriceCents is set
// only while an offer window is live.
type ProductDTO struct {
	ID              uuid.UUID  `json:"id"`
	SKU             string     `json:"sku"`
	Slug            string     `json:"slug"`
	Title           string     `json:"title"`
	Description     *string    `json:"description,omitempty"`
	CategoryID      *uuid.UUID `json:"category_id,omitempty"`
	BrandID         *uuid.UUID `json:"brand_id,omitempty"`
	PriceCents      int        `json:"price_cents"`
	OfferPriceCents *int       `json:"offer_price_cents,omitempty"`
	StockQty        int        `json:"stock_qty"`
	InStock         bool       `json:"in_stock"`
	IsActive        bool       `json:"is_active"`
	Images          []string   `json:"images"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ProductPageDTO is a cursor-paginated product listing.
type ProductPageDTO struct {
	Items      []ProductDTO `json:"items"`
	NextCursor *string      `json:"next_cursor,omitempty"`
}

// ListParams filters and paginates storefront product listings.
type ListParams struct {
	CategoryID *uuid.UUID
	BrandID    *uuid.UUID
	Search     string
	Limit      int
	Cursor     string
}

// CreateProductInput is the admin payload for a new product.
type CreateProductInput struct {
	SKU             string     `json:"sku" validate:"required"`
	Slug            string     `json:"slug" validate:"required"`
	Title           string     `json:"title" validate:"required"`
	Description     *string    `json:"description"`
	CategoryID      *uuid.UUID `json:"category_id"`
	BrandID         *uuid.UUID `json:"brand_id"`
	PriceCents      int        `json:"price_cents" validate:"gte=0"`
	StockQty        int        `json:"stock_qty" validate:"gte=0"`
	IsActive        *bool      `json:"is_active"`
	OfferPercentOff *string    `json:"offer_percent_off"`
	OfferStartsAt   *time.Time `json:"offer_starts_at"`
	OfferEndsAt     *time.Time `json:"offer_ends_at"`
	Images          []string   `json:"images"`
}

// UpdateProductInput carries optional admin edits; nil fields are untouched.
type UpdateProductInput struct {
	Title           *string    `json:"title"`
	Description     *string    `json:"description"`
	CategoryID      *uuid.UUID `json:"category_id"`
	BrandID         *uuid.UUID `json:"brand_id"`
	PriceCents      *int       `json:"price_cents" validate:"omitempty,gte=0"`
	StockQty        *int       `json:"stock_qty" validate:"omitempty,gte=0"`
	IsActive        *bool      `json:"is_active"`
	OfferPercentOff *string    `json:"offer_percent_off"`
	OfferStartsAt   *time.Time `json:"offer_starts_at"`
	OfferEndsAt     *time.Time `json:"offer_ends_at"`
	Images          []string   `json:"images"`
}

// ToDTO converts a product row for API output, applying any live offer.
func ToDTO(p *models.Product, now time.Time) ProductDTO {
	return toProductDTO(p, now)
}

func toProductDTO(p *models.Product, now time.Time) ProductDTO {
	dto := ProductDTO{
		ID:          p.ID,
		SKU:         p.SKU,
		Slug:        p.Slug,
		Title:       p.Title,
		Description: p.Description,
		CategoryID:  p.CategoryID,
		BrandID:     p.BrandID,
		PriceCents:  p.PriceCents,
		StockQty:    p.StockQty,
		InStock:     p.StockQty > 0,
		IsActive:    p.IsActive,
		Images:      append([]string{}, p.Images...),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if unit, original := CapturedPrice(p, now); original != nil {
		dto.OfferPriceCents = &unit
	}
	return dto
}
