package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/mgastelum/storefront-backend/pkg/db/models"
)

// OwnerKey identifies exactly one cart owner: an authenticated user or an
// anonymous session, never both.
type OwnerKey struct {
	UserID    *uuid.UUID
	SessionID *string
}

// UserOwner builds an OwnerKey for an authenticated user.
func UserOwner(userID uuid.UUID) OwnerKey {
	return OwnerKey{UserID: &userID}
}

// SessionOwner builds an OwnerKey for an anonymous session.
func SessionOwner(sessionID string) OwnerKey {
	return OwnerKey{SessionID: &sessionID}
}

// Valid reports whether exactly one owner dimension is set.
func (k OwnerKey) Valid() bool {
	hasUser := k.UserID != nil && *k.UserID != uuid.Nil
	hasSession := k.SessionID != nil && *k.SessionID != ""
	return hasUser != hasSession
}

// CartItemDTO is a cart line in API responses. LineTotalCents is derived from
// quantity and the captured unit price.
type CartItemDTO struct {
	ID                 uuid.UUID `json:"id"`
	ProductID          uuid.UUID `json:"product_id"`
	ProductTitle       string    `json:"product_title,omitempty"`
	ProductSlug        string    `json:"product_slug,omitempty"`
	ProductImage       *string   `json:"product_image,omitempty"`
	Quantity           int       `json:"quantity"`
	UnitPriceCents     int       `json:"unit_price_cents"`
	OriginalPriceCents *int      `json:"original_price_cents,omitempty"`
	LineTotalCents     int       `json:"line_total_cents"`
	CreatedAt          time.Time `json:"created_at"`
}

// CartDTO is the API shape of a cart. ItemCount and SubtotalCents are always
// recomputed from the lines, never read from storage.
type CartDTO struct {
	ID            uuid.UUID     `json:"id"`
	UserID        *uuid.UUID    `json:"user_id,omitempty"`
	SessionID     *string       `json:"session_id,omitempty"`
	Items         []CartItemDTO `json:"items"`
	ItemCount     int           `json:"item_count"`
	SubtotalCents int           `json:"subtotal_cents"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// EmptyCartDTO is what callers see before any item has been added.
func EmptyCartDTO(key OwnerKey) CartDTO {
	return CartDTO{
		UserID:    key.UserID,
		SessionID: key.SessionID,
		Items:     []CartItemDTO{},
	}
}

func toCartDTO(record *models.Cart, titles map[uuid.UUID]productSummary) CartDTO {
	dto := CartDTO{
		ID:        record.ID,
		UserID:    record.UserID,
		SessionID: record.SessionID,
		Items:     make([]CartItemDTO, 0, len(record.Items)),
		UpdatedAt: record.UpdatedAt,
	}
	for _, item := range record.Items {
		line := CartItemDTO{
			ID:                 item.ID,
			ProductID:          item.ProductID,
			Quantity:           item.Quantity,
			UnitPriceCents:     item.UnitPriceCents,
			OriginalPriceCents: item.OriginalPriceCents,
			LineTotalCents:     item.Quantity * item.UnitPriceCents,
			CreatedAt:          item.CreatedAt,
		}
		if summary, ok := titles[item.ProductID]; ok {
			line.ProductTitle = summary.Title
			line.ProductSlug = summary.Slug
			line.ProductImage = summary.Image
		}
		dto.Items = append(dto.Items, line)
		dto.ItemCount += item.Quantity
		dto.SubtotalCents += line.LineTotalCents
	}
	return dto
}

type productSummary struct {
	Title string
	Slug  string
	Image *string
}
