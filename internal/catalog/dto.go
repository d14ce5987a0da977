package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/mgastelum/storefront-backend/pkg/db/models"
)

// CategoryDTO is the API shape of a navigation category.
type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	Position    int       `json:"position"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// BrandDTO is the API shape of a product brand.
type BrandDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	LogoURL   *string   `json:"logo_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CategoryInput is the admin payload for creating or replacing a category.
type CategoryInput struct {
	Name        string  `json:"name" validate:"required"`
	Slug        string  `json:"slug" validate:"required"`
	Description *string `json:"description"`
	Position    int     `json:"position" validate:"gte=0"`
	IsActive    *bool   `json:"is_active"`
}

// BrandInput is the admin payload for creating or replacing a brand.
type BrandInput struct {
	Name    string  `json:"name" validate:"required"`
	Slug    string  `json:"slug" validate:"required"`
	LogoURL *string `json:"logo_url" validate:"omitempty,url"`
}

func toCategoryDTO(record *models.Category) CategoryDTO {
	return CategoryDTO{
		ID:          record.ID,
		Name:        record.Name,
		Slug:        record.Slug,
		Description: record.Description,
		Position:    record.Position,
		IsActive:    record.IsActive,
		CreatedAt:   record.CreatedAt,
	}
}

func toBrandDTO(record *models.Brand) BrandDTO {
	return BrandDTO{
		ID:        record.ID,
		Name:      record.Name,
		Slug:      record.Slug,
		LogoURL:   record.LogoURL,
		CreatedAt: record.CreatedAt,
	}
}
