package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mgastelum/storefront-backend/pkg/db/models"
)

// CartRepository abstracts cart persistence so the service can be exercised
// against stubs in tests.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindByOwner(ctx context.Context, key OwnerKey) (*models.Cart, error)
	Create(ctx context.Context, key OwnerKey) (*models.Cart, error)
	AddOrIncrementItem(ctx context.Context, item *models.CartItem, maxQuantity int) error
	FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error)
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	DeleteCart(ctx context.Context, cartID uuid.UUID) error
}
