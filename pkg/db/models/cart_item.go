package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is a product line in a cart. UnitPriceCents is captured at
// add-time (offer-aware) and never re-derived; OriginalPriceCents carries the
// list price for strike-through display when an offer applied.
type CartItem struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID             uuid.UUID `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:idx_cart_items_cart_product,priority:1"`
	ProductID          uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_cart_items_cart_product,priority:2"`
	Quantity           int       `gorm:"column:quantity;not null"`
	UnitPriceCents     int       `gorm:"column:unit_price_cents;not null"`
	OriginalPriceCents *int      `gorm:"column:original_price_cents"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
