package banners

import (
	"time"

	"github.com/google/uuid"

	"github.com/mgastelum/storefront-backend/pkg/db/models"
	"github.com/mgastelum/storefront-backend/pkg/enums"
)

// BannerDTO is the API shape of a promotional banner.
type BannerDTO struct {
	ID        uuid.UUID             `json:"id"`
	Title     string                `json:"title"`
	ImageURL  string                `json:"image_url"`
	TargetURL *string               `json:"target_url,omitempty"`
	Placement enums.BannerPlacement `json:"placement"`
	Position  int                   `json:"position"`
	IsActive  bool                  `json:"is_active"`
	StartsAt  *time.Time            `json:"starts_at,omitempty"`
	EndsAt    *time.Time            `json:"ends_at,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
}

// BannerInput is the admin payload for creating or replacing a banner.
type BannerInput struct {
	Title     string     `json:"title" validate:"required"`
	ImageURL  string     `json:"image_url" validate:"required,url"`
	TargetURL *string    `json:"target_url" validate:"omitempty,url"`
	Placement string     `json:"placement" validate:"required,oneof=hero sidebar checkout"`
	Position  int        `json:"position" validate:"gte=0"`
	IsActive  *bool      `json:"is_active"`
	StartsAt  *time.Time `json:"starts_at"`
	EndsAt    *time.Time `json:"ends_at"`
}

func toBannerDTO(record *models.Banner) BannerDTO {
	return BannerDTO{
		ID:        record.ID,
		Title:     record.Title,
		ImageURL:  record.ImageURL,
		TargetURL: record.TargetURL,
		Placement: record.Placement,
		Position:  record.Position,
		IsActive:  record.IsActive,
		StartsAt:  record.StartsAt,
		EndsAt:    record.EndsAt,
		CreatedAt: record.CreatedAt,
	}
}
