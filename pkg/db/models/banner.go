package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mgastelum/storefront-backend/pkg/enums"
)

// Banner is a promotional slot rendered on the storefront. A banner is live
// when it is active and the current time falls inside its date window.
type Banner struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title     string                `gorm:"column:title;not null"`
	ImageURL  string                `gorm:"column:image_url;not null"`
	TargetURL *string               `gorm:"column:target_url"`
	Placement enums.BannerPlacement `gorm:"column:placement;not null;default:'hero'"`
	Position  int                   `gorm:"column:position;not null;default:0"`
	IsActive  bool                  `gorm:"column:is_active;not null;default:true"`
	StartsAt  *time.Time            `gorm:"column:starts_at"`
	EndsAt    *time.Time            `gorm:"column:ends_at"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// LiveAt reports whether the banner should render at the given instant.
func (b Banner) LiveAt(now time.Time) bool {
	if !b.IsActive {
		return false
	}
	if b.StartsAt != nil && now.Before(*b.StartsAt) {
		return false
	}
	if b.EndsAt != nil && now.After(*b.EndsAt) {
		return false
	}
	return true
}
