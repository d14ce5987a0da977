package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	products "github.com/mgastelum/storefront-backend/internal/products"
	"github.com/mgastelum/storefront-backend/pkg/db"
	"github.com/mgastelum/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mgastelum/storefront-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// Service exposes cart operations for both anonymous sessions and
// authenticated users. All mutations return the recomputed cart.
type Service interface {
	Get(ctx context.Context, key OwnerKey) (CartDTO, error)
	AddItem(ctx context.Context, key OwnerKey, productID uuid.UUID, quantity int) (CartDTO, error)
	UpdateItem(ctx context.Context, key OwnerKey, itemID uuid.UUID, quantity int) (CartDTO, error)
	RemoveItem(ctx context.Context, key OwnerKey, itemID uuid.UUID) (CartDTO, error)
	Clear(ctx context.Context, key OwnerKey) (CartDTO, error)
	MergeOnLogin(ctx context.Context, sessionID string, userID uuid.UUID) (CartDTO, error)
}

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	CartRepo           CartRepository
	Tx                 txRunner
	ProductRepo        productLoader
	MaxQuantityPerLine int
	Now                func() time.Time
}

type service struct {
	repo        CartRepository
	tx          txRunner
	productRepo productLoader
	maxPerLine  int
	now         func() time.Time
}

// NewService builds a cart service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.CartRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart repo is required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	}
	if params.ProductRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product repo is required")
	}
	if params.MaxQuantityPerLine <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max quantity per line must be positive")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		repo:        params.CartRepo,
		tx:          params.Tx,
		productRepo: params.ProductRepo,
		maxPerLine:  params.MaxQuantityPerLine,
		now:         params.Now,
	}, nil
}

// Get returns the owner's cart, or an empty cart when none exists yet.
// Absence is not an error: a cart is only created on first item add.
func (s *service) Get(ctx context.Context, key OwnerKey) (CartDTO, error) {
	if !key.Valid() {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "cart owner must be a user or a session, not both")
	}

	record, err := s.repo.FindByOwner(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EmptyCartDTO(key), nil
		}
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return s.hydrate(ctx, record)
}

// AddItem appends a product line, or bumps the quantity of an existing line
// for the same product. The unit price is captured now, offer included, and
// is never re-derived on later reads.
func (s *service) AddItem(ctx context.Context, key OwnerKey, productID uuid.UUID, quantity int) (CartDTO, error) {
	if !key.Valid() {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "cart owner must be a user or a session, not both")
	}
	if productID == uuid.Nil {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if quantity < 1 {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if quantity > s.maxPerLine {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds the per-line maximum").
			WithDetails(map[string]any{"max_quantity": s.maxPerLine})
	}

	product, err := s.loadActiveProduct(ctx, productID)
	if err != nil {
		return CartDTO{}, err
	}
	if quantity > product.StockQty {
		return CartDTO{}, outOfStock(product.StockQty, quantity)
	}

	unitPrice, originalPrice := products.CapturedPrice(product, s.now())

	var saved *models.Cart
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		record, err := findOrCreateCart(ctx, txRepo, key)
		if err != nil {
			return err
		}

		item := &models.CartItem{
			CartID:             record.ID,
			ProductID:          product.ID,
			Quantity:           quantity,
			UnitPriceCents:     unitPrice,
			OriginalPriceCents: originalPrice,
		}
		// combined quantity is clamped inside the upsert so two concurrent
		// adds cannot duplicate the line or overshoot stock
		if err := txRepo.AddOrIncrementItem(ctx, item, s.clampFor(product)); err != nil {
			return err
		}

		saved, err = txRepo.FindByOwner(ctx, key)
		return err
	}); err != nil {
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart item")
	}

	return s.hydrate(ctx, saved)
}

// UpdateItem sets a line's quantity. Zero removes the line.
func (s *service) UpdateItem(ctx context.Context, key OwnerKey, itemID uuid.UUID, quantity int) (CartDTO, error) {
	if !key.Valid() {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "cart owner must be a user or a session, not both")
	}
	if itemID == uuid.Nil {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if quantity < 0 {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if quantity > s.maxPerLine {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds the per-line maximum").
			WithDetails(map[string]any{"max_quantity": s.maxPerLine})
	}

	item, err := s.findOwnedItem(ctx, key, itemID)
	if err != nil {
		return CartDTO{}, err
	}

	if quantity == 0 {
		if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
			return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
		}
		return s.reload(ctx, key)
	}

	product, err := s.loadActiveProduct(ctx, item.ProductID)
	if err != nil {
		return CartDTO{}, err
	}
	if quantity > product.StockQty {
		return CartDTO{}, outOfStock(product.StockQty, quantity)
	}

	if err := s.repo.UpdateItemQuantity(ctx, item.ID, quantity); err != nil {
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	return s.reload(ctx, key)
}

// RemoveItem drops a line from the cart.
func (s *service) RemoveItem(ctx context.Context, key OwnerKey, itemID uuid.UUID) (CartDTO, error) {
	if !key.Valid() {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "cart owner must be a user or a session, not both")
	}
	if itemID == uuid.Nil {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}

	item, err := s.findOwnedItem(ctx, key, itemID)
	if err != nil {
		return CartDTO{}, err
	}

	if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	return s.reload(ctx, key)
}

// Clear deletes the owner's cart outright. Clearing an absent cart succeeds.
func (s *service) Clear(ctx context.Context, key OwnerKey) (CartDTO, error) {
	if !key.Valid() {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "cart owner must be a user or a session, not both")
	}

	record, err := s.repo.FindByOwner(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EmptyCartDTO(key), nil
		}
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	if err := s.repo.DeleteCart(ctx, record.ID); err != nil {
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return EmptyCartDTO(key), nil
}

// MergeOnLogin folds the anonymous session cart into the user's cart.
// Shared products sum their quantities, clamped to stock; the user's captured
// price wins for shared lines. The session cart is deleted afterwards, so a
// second merge with the same session id is a no-op.
func (s *service) MergeOnLogin(ctx context.Context, sessionID string, userID uuid.UUID) (CartDTO, error) {
	if sessionID == "" {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if userID == uuid.Nil {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	userKey := UserOwner(userID)

	sessionCart, err := s.repo.FindByOwner(ctx, SessionOwner(sessionID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.Get(ctx, userKey)
		}
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session cart")
	}

	stock, err := s.stockByProduct(ctx, sessionCart.Items)
	if err != nil {
		return CartDTO{}, err
	}

	var saved *models.Cart
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		userCart, err := findOrCreateCart(ctx, txRepo, userKey)
		if err != nil {
			return err
		}

		for _, line := range sessionCart.Items {
			product, ok := stock[line.ProductID]
			if !ok {
				// product vanished or went inactive since the session added it
				continue
			}

			item := &models.CartItem{
				CartID:             userCart.ID,
				ProductID:          line.ProductID,
				Quantity:           min(line.Quantity, product.StockQty),
				UnitPriceCents:     line.UnitPriceCents,
				OriginalPriceCents: line.OriginalPriceCents,
			}
			if item.Quantity < 1 {
				continue
			}
			if err := txRepo.AddOrIncrementItem(ctx, item, s.clampFor(&product)); err != nil {
				return err
			}
		}

		if err := txRepo.DeleteCart(ctx, sessionCart.ID); err != nil {
			return err
		}

		saved, err = txRepo.FindByOwner(ctx, userKey)
		return err
	}); err != nil {
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge carts")
	}

	return s.hydrate(ctx, saved)
}

// findOrCreateCart loads the owner's cart, creating it when absent. Two
// concurrent first adds can both miss the read and both insert; the loser
// hits the unique owner index and re-reads the winner's cart instead of
// failing.
func findOrCreateCart(ctx context.Context, repo CartRepository, key OwnerKey) (*models.Cart, error) {
	record, err := repo.FindByOwner(ctx, key)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	record, err = repo.Create(ctx, key)
	if err == nil {
		return record, nil
	}
	if db.IsUniqueViolation(err) {
		return repo.FindByOwner(ctx, key)
	}
	return nil, err
}

func (s *service) loadActiveProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.productRepo.FindActiveByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) findOwnedItem(ctx context.Context, key OwnerKey, itemID uuid.UUID) (*models.CartItem, error) {
	record, err := s.repo.FindByOwner(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	item, err := s.repo.FindItem(ctx, record.ID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	return item, nil
}

func (s *service) reload(ctx context.Context, key OwnerKey) (CartDTO, error) {
	record, err := s.repo.FindByOwner(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EmptyCartDTO(key), nil
		}
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	return s.hydrate(ctx, record)
}

func (s *service) hydrate(ctx context.Context, record *models.Cart) (CartDTO, error) {
	summaries, err := s.productSummaries(ctx, record.Items)
	if err != nil {
		return CartDTO{}, err
	}
	return toCartDTO(record, summaries), nil
}

func (s *service) productSummaries(ctx context.Context, items []models.CartItem) (map[uuid.UUID]productSummary, error) {
	if len(items) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	rows, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}

	out := make(map[uuid.UUID]productSummary, len(rows))
	for _, row := range rows {
		summary := productSummary{Title: row.Title, Slug: row.Slug}
		if len(row.Images) > 0 {
			image := row.Images[0]
			summary.Image = &image
		}
		out[row.ID] = summary
	}
	return out, nil
}

func (s *service) stockByProduct(ctx context.Context, items []models.CartItem) (map[uuid.UUID]models.Product, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	rows, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products for merge")
	}

	out := make(map[uuid.UUID]models.Product, len(rows))
	for _, row := range rows {
		if !row.IsActive {
			continue
		}
		out[row.ID] = row
	}
	return out, nil
}

func (s *service) clampFor(product *models.Product) int {
	return min(product.StockQty, s.maxPerLine)
}

func outOfStock(available, requested int) error {
	return pkgerrors.New(pkgerrors.CodeOutOfStock, "requested quantity exceeds available stock").
		WithDetails(map[string]any{"available": available, "requested": requested})
}
