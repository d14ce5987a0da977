package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is a storefront listing. Stock and price live here; promotional
// offers are a percent-off applied inside an optional date window.
type Product struct {
	ID              uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU             string           `gorm:"column:sku;not null;uniqueIndex"`
	Slug            string           `gorm:"column:slug;not null;uniqueIndex"`
	Title           string           `gorm:"column:title;not null"`
	Description     *string          `gorm:"column:description"`
	CategoryID      *uuid.UUID       `gorm:"column:category_id;type:uuid"`
	BrandID         *uuid.UUID       `gorm:"column:brand_id;type:uuid"`
	PriceCents      int              `gorm:"column:price_cents;not null"`
	StockQty        int              `gorm:"column:stock_qty;not null;default:0"`
	IsActive        bool             `gorm:"column:is_active;not null;default:true"`
	OfferPercentOff *decimal.Decimal `gorm:"column:offer_percent_off;type:numeric(5,2)"`
	OfferStartsAt   *time.Time       `gorm:"column:offer_starts_at"`
	OfferEndsAt     *time.Time       `gorm:"column:offer_ends_at"`
	Images          pq.StringArray   `gorm:"column:images;type:text[]"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// OfferActiveAt reports whether the percent-off offer applies at the given instant.
func (p Product) OfferActiveAt(now time.Time) bool {
	if p.OfferPercentOff == nil || p.OfferPercentOff.IsZero() {
		return false
	}
	if p.OfferStartsAt != nil && now.Before(*p.OfferStartsAt) {
		return false
	}
	if p.OfferEndsAt != nil && now.After(*p.OfferEndsAt) {
		return false
	}
	return true
}
