package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mgastelum/storefront-backend/pkg/db/models"
)

// Repository persists carts and their line items.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByOwner loads the cart for a user or session owner, items included.
func (r *Repository) FindByOwner(ctx context.Context, key OwnerKey) (*models.Cart, error) {
	query := r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("cart_items.created_at ASC")
	})
	if key.UserID != nil {
		query = query.Where("user_id = ?", *key.UserID)
	} else {
		query = query.Where("session_id = ?", *key.SessionID)
	}

	var record models.Cart
	if err := query.First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts an empty cart for the owner.
func (r *Repository) Create(ctx context.Context, key OwnerKey) (*models.Cart, error) {
	record := &models.Cart{
		UserID:    key.UserID,
		SessionID: key.SessionID,
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// AddOrIncrementItem inserts a line or, when the (cart, product) pair already
// exists, atomically adds to its quantity clamped at maxQuantity. The clamp
// and increment happen in one statement so concurrent adds cannot duplicate a
// line or race past the cap.
func (r *Repository) AddOrIncrementItem(ctx context.Context, item *models.CartItem, maxQuantity int) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"quantity":   gorm.Expr("LEAST(cart_items.quantity + excluded.quantity, ?)", maxQuantity),
			"updated_at": gorm.Expr("now()"),
		}),
	}).Create(item).Error
}

// FindItem loads a line restricted to the given cart.
func (r *Repository) FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItemQuantity sets the quantity on an existing line.
func (r *Repository) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", quantity).Error
}

// DeleteItem removes a single line.
func (r *Repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", itemID).
		Delete(&models.CartItem{}).Error
}

// DeleteCart removes the cart; items cascade at the schema level.
func (r *Repository) DeleteCart(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", cartID).
		Delete(&models.Cart{}).Error
}
