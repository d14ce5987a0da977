package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mgastelum/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mgastelum/storefront-backend/pkg/errors"
)

func TestAddItemCapturesPriceAndAggregates(t *testing.T) {
	t.Parallel()

	products := newStubProducts()
	cheap := products.add(stubProduct{price: 500, stock: 10})
	dear := products.add(stubProduct{price: 1250, stock: 10})
	svc := newTestService(t, newMemRepo(), products)

	key := SessionOwner("sess-1")
	if _, err := svc.AddItem(context.Background(), key, cheap, 2); err != nil {
		t.Fatalf("add cheap: %v", err)
	}
	if _, err := svc.AddItem(context.Background(), key, dear, 3); err != nil {
		t.Fatalf("add dear: %v", err)
	}

	got, err := svc.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if got.ItemCount != 5 {
		t.Fatalf("expected item count 5, got %d", got.ItemCount)
	}
	if want := 2*500 + 3*1250; got.SubtotalCents != want {
		t.Fatalf("expected subtotal %d, got %d", want, got.SubtotalCents)
	}
}

func TestAddItemTwiceMergesIntoOneLine(t *testing.T) {
	t.Parallel()

	products := newStubProducts()
	productID := products.add(stubProduct{price: 700, stock: 10})
	svc := newTestService(t, newMemRepo(), products)

	key := SessionOwner("sess-2")
	if _, err := svc.AddItem(context.Background(), key, productID, 2); err != nil {
		t.Fatalf("first add: %v", err)
	}
	got, err := svc.AddItem(context.Background(), key, productID, 3)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(got.Items) != 1 {
		t.Fatalf("expected one line, got %d", len(got.Items))
	}
	if got.Items[0].Quantity != 5 {
		t.Fatalf("expected summed quantity 5, got %d", got.Items[0].Quantity)
	}
}

func TestAddItemConcurrentFirstAddReusesWinnersCart(t *testing.T) {
	t.Parallel()

	products := newStubProducts()
	productID := products.add(stubProduct{price: 500, stock: 5})
	repo := &raceCreateRepo{CartRepository: newMemRepo()}
	svc := newTestService(t, repo, products)

	// two first adds race: this one loses the cart insert and must land its
	// line in the cart the other request created
	got, err := svc.AddItem(context.Background(), SessionOwner("sess-race"), productID, 1)
	if err != nil {
		t.Fatalf("add after losing create race: %v", err)
	}
	if !repo.raced {
		t.Fatal("create race was not exercised")
	}
	if len(got.Items) != 1 || got.Items[0].Quantity != 1 {
		t.Fatalf("expected one line in the surviving cart, got %+v", got)
	}
}

func TestAddItemOfferPriceCaptured(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	offer := decimal.NewFromInt(20)
	starts := now.Add(-time.Hour)
	ends := now.Add(time.Hour)

	products := newStubProducts()
	productID := products.add(stubProduct{
		price: 1000, stock: 5,
		offerPct: &offer, offerStarts: &starts, offerEnds: &ends,
	})
	svc := newTestServiceAt(t, newMemRepo(), products, now)

	got, err := svc.AddItem(context.Background(), SessionOwner("sess-3"), productID, 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	line := got.Items[0]
	if line.UnitPriceCents != 800 {
		t.Fatalf("expected discounted unit price 800, got %d", line.UnitPriceCents)
	}
	if line.OriginalPriceCents == nil || *line.OriginalPriceCents != 1000 {
		t.Fatalf("expected original price 1000, got %v", line.OriginalPriceCents)
	}
}

func TestAddItemOutOfStock(t *testing.T) {
	t.Parallel()

	products := newStubProducts()
	productID := products.add(stubProduct{price: 500, stock: 2})
	svc := newTestService(t, newMemRepo(), products)

	_, err := svc.AddItem(context.Background(), SessionOwner("sess-4"), productID, 3)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeOutOfStock {
		t.Fatalf("expected out-of-stock error, got %v", err)
	}
}

func TestAddItemInactiveProductNotFound(t *testing.T) {
	t.Parallel()

	products := newStubProducts()
	productID := products.add(stubProduct{price: 500, stock: 5, inactive: true})
	svc := newTestService(t, newMemRepo(), products)

	_, err := svc.AddItem(context.Background(), SessionOwner("sess-5"), productID, 1)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestUpdateItemExceedingStockLeavesCartUnchanged(t *testing.T) {
	t.Parallel()

	products := newStubProducts()
	productID := products.add(stubProduct{price: 500, stock: 4})
	svc := newTestService(t, newMemRepo(), products)

	key := SessionOwner("sess-6")
	before, err := svc.AddItem(context.Background(), key, productID, 2)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	_, err = svc.UpdateItem(context.Background(), key, before.Items[0].ID, 9)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeOutOfStock {
		t.Fatalf("expected out-of-stock error, got %v", err)
	}

	after, err := svc.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if after.ItemCount != before.ItemCount || after.SubtotalCents != before.SubtotalCents {
		t.Fatalf("cart changed after failed update: before=%+v after=%+v", before, after)
	}
}

func TestUpdateItemZeroQuantityRemovesLine(t *testing.T) {
	t.Parallel()

	products := newStubProducts()
	productID := products.add(stubProduct{price: 500, stock: 4})
	svc := newTestService(t, newMemRepo(), products)

	key := SessionOwner("sess-7")
	added, err := svc.AddItem(context.Background(), key, productID, 2)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	got, err := svc.UpdateItem(context.Background(), key, added.Items[0].ID, 0)
	if err != nil {
		t.Fatalf("update to zero: %v", err)
	}
	if len(got.Items) != 0 || got.ItemCount != 0 {
		t.Fatalf("expected empty cart, got %+v", got)
	}
}

func TestRemoveItemUnknownIDNotFound(t *testing.T) {
	t.Parallel()

	products := newStubProducts()
	productID := products.add(stubProduct{price: 500, stock: 4})
	svc := newTestService(t, newMemRepo(), products)

	key := SessionOwner("sess-8")
	before, err := svc.AddItem(context.Background(), key, productID, 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	_, err = svc.RemoveItem(context.Background(), key, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}

	after, err := svc.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if after.ItemCount != before.ItemCount {
		t.Fatalf("cart changed after failed remove")
	}
}

func TestMergeOnLoginSumsAndClamps(t *testing.T) {
	t.Parallel()

	products := newStubProducts()
	productA := products.add(stubProduct{price: 500, stock: 3})
	productB := products.add(stubProduct{price: 900, stock: 10})
	repo := newMemRepo()
	svc := newTestService(t, repo, products)

	sessionKey := SessionOwner("sess-9")
	userID := uuid.New()
	userKey := UserOwner(userID)

	// session cart {A:2}, user cart {A:1, B:1}
	if _, err := svc.AddItem(context.Background(), sessionKey, productA, 2); err != nil {
		t.Fatalf("session add A: %v", err)
	}
	if _, err := svc.AddItem(context.Background(), userKey, productA, 1); err != nil {
		t.Fatalf("user add A: %v", err)
	}
	if _, err := svc.AddItem(context.Background(), userKey, productB, 1); err != nil {
		t.Fatalf("user add B: %v", err)
	}

	got, err := svc.MergeOnLogin(context.Background(), "sess-9", userID)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	quantities := map[uuid.UUID]int{}
	for _, line := range got.Items {
		quantities[line.ProductID] = line.Quantity
	}
	// A sums to 3 and stock caps it there; B is untouched
	if quantities[productA] != 3 {
		t.Fatalf("expected product A quantity 3, got %d", quantities[productA])
	}
	if quantities[productB] != 1 {
		t.Fatalf("expected product B quantity 1, got %d", quantities[productB])
	}

	if _, err := repo.FindByOwner(context.Background(), sessionKey); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected session cart to be gone, got %v", err)
	}
}

func TestMergeOnLoginWithoutSessionCartReturnsUserCart(t *testing.T) {
	t.Parallel()

	products := newStubProducts()
	productID := products.add(stubProduct{price: 500, stock: 5})
	svc := newTestService(t, newMemRepo(), products)

	userID := uuid.New()
	if _, err := svc.AddItem(context.Background(), UserOwner(userID), productID, 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	got, err := svc.MergeOnLogin(context.Background(), "sess-absent", userID)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if got.ItemCount != 2 {
		t.Fatalf("expected untouched user cart, got %+v", got)
	}
}

func TestClearDeletesCart(t *testing.T) {
	t.Parallel()

	products := newStubProducts()
	productID := products.add(stubProduct{price: 500, stock: 5})
	repo := newMemRepo()
	svc := newTestService(t, repo, products)

	key := SessionOwner("sess-10")
	if _, err := svc.AddItem(context.Background(), key, productID, 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	got, err := svc.Clear(context.Background(), key)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got.ItemCount != 0 {
		t.Fatalf("expected empty cart after clear")
	}
	if _, err := repo.FindByOwner(context.Background(), key); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected cart row to be gone, got %v", err)
	}
}

func TestGetAbsentCartIsEmptyNotError(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newMemRepo(), newStubProducts())

	got, err := svc.Get(context.Background(), SessionOwner("sess-none"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ItemCount != 0 || len(got.Items) != 0 {
		t.Fatalf("expected empty cart, got %+v", got)
	}
}

func TestOwnerKeyRequiresExactlyOneOwner(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newMemRepo(), newStubProducts())

	userID := uuid.New()
	session := "sess"
	both := OwnerKey{UserID: &userID, SessionID: &session}
	if _, err := svc.Get(context.Background(), both); err == nil {
		t.Fatal("expected validation error for double owner")
	}
	if _, err := svc.Get(context.Background(), OwnerKey{}); err == nil {
		t.Fatal("expected validation error for empty owner")
	}
}

func newTestService(t *testing.T, repo CartRepository, products *stubProductRepo) Service {
	t.Helper()
	return newTestServiceAt(t, repo, products, time.Now())
}

func newTestServiceAt(t *testing.T, repo CartRepository, products *stubProductRepo, now time.Time) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		CartRepo:           repo,
		Tx:                 stubTxRunner{},
		ProductRepo:        products,
		MaxQuantityPerLine: 99,
		Now:                func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("building service: %v", err)
	}
	return svc
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubProduct struct {
	price       int
	stock       int
	inactive    bool
	offerPct    *decimal.Decimal
	offerStarts *time.Time
	offerEnds   *time.Time
}

type stubProductRepo struct {
	rows map[uuid.UUID]models.Product
}

func newStubProducts() *stubProductRepo {
	return &stubProductRepo{rows: map[uuid.UUID]models.Product{}}
}

func (s *stubProductRepo) add(p stubProduct) uuid.UUID {
	id := uuid.New()
	s.rows[id] = models.Product{
		ID:              id,
		Title:           "product " + id.String()[:8],
		Slug:            "product-" + id.String()[:8],
		PriceCents:      p.price,
		StockQty:        p.stock,
		IsActive:        !p.inactive,
		OfferPercentOff: p.offerPct,
		OfferStartsAt:   p.offerStarts,
		OfferEndsAt:     p.offerEnds,
	}
	return id
}

func (s *stubProductRepo) FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	row, ok := s.rows[id]
	if !ok || !row.IsActive {
		return nil, gorm.ErrRecordNotFound
	}
	return &row, nil
}

func (s *stubProductRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		if row, ok := s.rows[id]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

// memRepo is an in-memory CartRepository mirroring the SQL semantics,
// including the clamped upsert on (cart, product).
type memRepo struct {
	carts map[uuid.UUID]*models.Cart
}

func newMemRepo() *memRepo {
	return &memRepo{carts: map[uuid.UUID]*models.Cart{}}
}

func (m *memRepo) WithTx(tx *gorm.DB) CartRepository { return m }

func (m *memRepo) FindByOwner(ctx context.Context, key OwnerKey) (*models.Cart, error) {
	for _, record := range m.carts {
		if key.UserID != nil && record.UserID != nil && *record.UserID == *key.UserID {
			return cloneCart(record), nil
		}
		if key.SessionID != nil && record.SessionID != nil && *record.SessionID == *key.SessionID {
			return cloneCart(record), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memRepo) Create(ctx context.Context, key OwnerKey) (*models.Cart, error) {
	record := &models.Cart{ID: uuid.New(), UserID: key.UserID, SessionID: key.SessionID}
	m.carts[record.ID] = record
	return cloneCart(record), nil
}

func (m *memRepo) AddOrIncrementItem(ctx context.Context, item *models.CartItem, maxQuantity int) error {
	record, ok := m.carts[item.CartID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range record.Items {
		if record.Items[i].ProductID == item.ProductID {
			record.Items[i].Quantity = min(record.Items[i].Quantity+item.Quantity, maxQuantity)
			return nil
		}
	}
	item.ID = uuid.New()
	if item.Quantity > maxQuantity {
		item.Quantity = maxQuantity
	}
	record.Items = append(record.Items, *item)
	return nil
}

func (m *memRepo) FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	record, ok := m.carts[cartID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	for _, item := range record.Items {
		if item.ID == itemID {
			copied := item
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memRepo) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	for _, record := range m.carts {
		for i := range record.Items {
			if record.Items[i].ID == itemID {
				record.Items[i].Quantity = quantity
				return nil
			}
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	for _, record := range m.carts {
		for i := range record.Items {
			if record.Items[i].ID == itemID {
				record.Items = append(record.Items[:i], record.Items[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

func (m *memRepo) DeleteCart(ctx context.Context, cartID uuid.UUID) error {
	delete(m.carts, cartID)
	return nil
}

// raceCreateRepo makes the first Create behave like the losing side of two
// concurrent inserts: the row exists (the other request committed it) and the
// insert comes back as a unique violation on the owner index.
type raceCreateRepo struct {
	CartRepository
	raced bool
}

func (r *raceCreateRepo) WithTx(tx *gorm.DB) CartRepository { return r }

func (r *raceCreateRepo) Create(ctx context.Context, key OwnerKey) (*models.Cart, error) {
	if r.raced {
		return r.CartRepository.Create(ctx, key)
	}
	r.raced = true
	if _, err := r.CartRepository.Create(ctx, key); err != nil {
		return nil, err
	}
	return nil, errors.New(`duplicate key value violates unique constraint "idx_carts_owner_user"`)
}

func cloneCart(record *models.Cart) *models.Cart {
	copied := *record
	copied.Items = append([]models.CartItem{}, record.Items...)
	return &copied
}
