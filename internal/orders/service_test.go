package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/storelinehq/storeline-backend/internal/cart"
	"github.com/storelinehq/storeline-backend/pkg/config"
	"github.com/storelinehq/storeline-backend/pkg/db/models"
	"github.com/storelinehq/storeline-backend/pkg/enums"
	pkgerrors "github.com/storelinehq/storeline-backend/pkg/errors"
	"github.com/storelinehq/storeline-backend/pkg/pagination"
	"github.com/storelinehq/storeline-backend/pkg/payment"
)

type sqliteTxRunner struct {
	db *gorm.DB
}

func (r sqliteTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type fakeGateway struct {
	session      *payment.Session
	requestErr   error
	verifyResult *payment.VerifyResult
	verifyErr    error
	requests     []payment.Request
	verified     []string
}

func (f *fakeGateway) RequestPayment(_ context.Context, req payment.Request) (*payment.Session, error) {
	f.requests = append(f.requests, req)
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return f.session, nil
}

func (f *fakeGateway) Verify(_ context.Context, token string, _ int64) (*payment.VerifyResult, error) {
	f.verified = append(f.verified, token)
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.verifyResult, nil
}

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL,
  sub_category_id TEXT NOT NULL,
  type_id TEXT,
  brand TEXT NOT NULL,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  price_cents INTEGER NOT NULL,
  discount_price_cents INTEGER,
  purchasable INTEGER NOT NULL DEFAULT 1,
  sold_count INTEGER NOT NULL DEFAULT 0,
  color TEXT,
  color_group TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS cart_records (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL,
  payment_status TEXT NOT NULL,
  payment_ref TEXT,
  subtotal_cents INTEGER NOT NULL,
  discount_cents INTEGER NOT NULL DEFAULT 0,
  total_cents INTEGER NOT NULL,
  paid_at DATETIME,
  canceled_at DATETIME,
  confirmed_at DATETIME,
  returned_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS order_line_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT,
  name TEXT NOT NULL,
  brand TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  total_cents INTEGER NOT NULL,
  created_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type ordersFixture struct {
	db      *gorm.DB
	svc     *service
	gateway *fakeGateway
	carts   *cart.Repository
}

func newOrdersFixture(t *testing.T) *ordersFixture {
	t.Helper()
	db := setupOrdersTestDB(t)
	gateway := &fakeGateway{
		session:      &payment.Session{Token: "tok-1", RedirectURL: "https://gateway.test/pay/tok-1"},
		verifyResult: &payment.VerifyResult{Verified: true, ReferenceID: "ref-1"},
	}
	carts := cart.NewRepository(db)
	svc, err := NewService(NewRepository(db), carts, gateway, sqliteTxRunner{db: db}, config.OrdersConfig{ReturnWindowDays: 7})
	require.NoError(t, err)
	return &ordersFixture{db: db, svc: svc.(*service), gateway: gateway, carts: carts}
}

func (f *ordersFixture) seedProduct(t *testing.T, priceCents int, purchasable bool) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:            uuid.New(),
		CategoryID:    uuid.New(),
		SubCategoryID: uuid.New(),
		Brand:         "Nike",
		Name:          "Pegasus",
		Slug:          fmt.Sprintf("pegasus-%s", uuid.NewString()),
		PriceCents:    priceCents,
		Purchasable:   purchasable,
	}
	require.NoError(t, f.db.Create(product).Error)
	return product
}

func (f *ordersFixture) seedCart(t *testing.T, userID uuid.UUID, lines map[*models.Product]int) *models.CartRecord {
	t.Helper()
	record := &models.CartRecord{ID: uuid.New(), UserID: userID, Status: enums.CartStatusActive}
	require.NoError(t, f.db.Create(record).Error)
	for product, qty := range lines {
		require.NoError(t, f.db.Create(&models.CartItem{
			ID:             uuid.New(),
			CartID:         record.ID,
			ProductID:      product.ID,
			Quantity:       qty,
			UnitPriceCents: product.EffectivePriceCents(),
		}).Error)
	}
	return record
}

func TestPlaceSnapshotsCartAndOpensPayment(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	shoe := f.seedProduct(t, 12000, true)
	sock := f.seedProduct(t, 1500, true)
	f.seedCart(t, userID, map[*models.Product]int{shoe: 1, sock: 2})

	placement, err := f.svc.Place(ctx, userID)
	require.NoError(t, err)

	order := placement.Order
	assert.Equal(t, enums.OrderStatusPlaced, order.Status)
	assert.Equal(t, enums.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, 15000, order.SubtotalCents)
	assert.Equal(t, 15000, order.TotalCents)
	require.Len(t, order.LineItems, 2)
	require.NotNil(t, order.PaymentRef)
	assert.Equal(t, "tok-1", *order.PaymentRef)
	assert.Equal(t, "https://gateway.test/pay/tok-1", placement.RedirectURL)

	// gateway saw the total in cents
	require.Len(t, f.gateway.requests, 1)
	assert.Equal(t, int64(15000), f.gateway.requests[0].AmountCents)
	assert.Equal(t, order.ID.String(), f.gateway.requests[0].OrderRef)

	// the cart is no longer active
	_, err = f.carts.FindActiveByUser(ctx, userID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPlaceRequiresNonEmptyCart(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := f.svc.Place(ctx, userID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	f.seedCart(t, userID, nil)
	_, err = f.svc.Place(ctx, userID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestPlaceRejectsUnpurchasableLine(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	product := f.seedProduct(t, 5000, false)
	f.seedCart(t, userID, map[*models.Product]int{product: 1})

	_, err := f.svc.Place(ctx, userID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
	assert.Empty(t, f.gateway.requests)
}

func TestPaymentCallbackVerifiedMarksPaid(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	product := f.seedProduct(t, 6000, true)
	f.seedCart(t, userID, map[*models.Product]int{product: 3})
	placement, err := f.svc.Place(ctx, userID)
	require.NoError(t, err)

	order, err := f.svc.HandlePaymentCallback(ctx, placement.Order.ID, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, order.Status)
	assert.Equal(t, enums.PaymentStatusVerified, order.PaymentStatus)
	require.NotNil(t, order.PaymentRef)
	assert.Equal(t, "ref-1", *order.PaymentRef)
	require.NotNil(t, order.PaidAt)

	var sold int
	require.NoError(t, f.db.Model(&models.Product{}).Select("sold_count").Where("id = ?", product.ID).Scan(&sold).Error)
	assert.Equal(t, 3, sold)

	// replaying the callback neither fails nor double-counts
	_, err = f.svc.HandlePaymentCallback(ctx, placement.Order.ID, "tok-1")
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Product{}).Select("sold_count").Where("id = ?", product.ID).Scan(&sold).Error)
	assert.Equal(t, 3, sold)
	assert.Len(t, f.gateway.verified, 1)
}

func TestPaymentCallbackRejected(t *testing.T) {
	f := newOrdersFixture(t)
	f.gateway.verifyResult = &payment.VerifyResult{Verified: false}
	ctx := context.Background()
	userID := uuid.New()

	product := f.seedProduct(t, 6000, true)
	f.seedCart(t, userID, map[*models.Product]int{product: 1})
	placement, err := f.svc.Place(ctx, userID)
	require.NoError(t, err)

	order, err := f.svc.HandlePaymentCallback(ctx, placement.Order.ID, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPlaced, order.Status)
	assert.Equal(t, enums.PaymentStatusFailed, order.PaymentStatus)

	var sold int
	require.NoError(t, f.db.Model(&models.Product{}).Select("sold_count").Where("id = ?", product.ID).Scan(&sold).Error)
	assert.Equal(t, 0, sold)
}

func TestCancelTransitions(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	product := f.seedProduct(t, 6000, true)
	f.seedCart(t, userID, map[*models.Product]int{product: 1})
	placement, err := f.svc.Place(ctx, userID)
	require.NoError(t, err)
	orderID := placement.Order.ID

	// strangers cannot cancel
	_, err = f.svc.Cancel(ctx, Actor{UserID: uuid.New(), Role: enums.UserRoleCustomer}, orderID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	order, err := f.svc.Cancel(ctx, Actor{UserID: userID, Role: enums.UserRoleCustomer}, orderID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCanceled, order.Status)
	require.NotNil(t, order.CanceledAt)

	// canceled orders stay canceled
	_, err = f.svc.Cancel(ctx, Actor{UserID: userID, Role: enums.UserRoleCustomer}, orderID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestConfirmRequiresPaid(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	product := f.seedProduct(t, 6000, true)
	f.seedCart(t, userID, map[*models.Product]int{product: 1})
	placement, err := f.svc.Place(ctx, userID)
	require.NoError(t, err)

	_, err = f.svc.Confirm(ctx, placement.Order.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	_, err = f.svc.HandlePaymentCallback(ctx, placement.Order.ID, "tok-1")
	require.NoError(t, err)

	order, err := f.svc.Confirm(ctx, placement.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, order.Status)
	require.NotNil(t, order.ConfirmedAt)
}

func TestReturnWindow(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	actor := Actor{UserID: userID, Role: enums.UserRoleCustomer}

	product := f.seedProduct(t, 6000, true)
	f.seedCart(t, userID, map[*models.Product]int{product: 1})
	placement, err := f.svc.Place(ctx, userID)
	require.NoError(t, err)
	orderID := placement.Order.ID

	_, err = f.svc.HandlePaymentCallback(ctx, orderID, "tok-1")
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, orderID)
	require.NoError(t, err)

	// ten days later the window has passed
	f.svc.now = func() time.Time { return time.Now().Add(10 * 24 * time.Hour) }
	_, err = f.svc.Return(ctx, actor, orderID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	// within the window the return goes through
	f.svc.now = time.Now
	order, err := f.svc.Return(ctx, actor, orderID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusReturned, order.Status)
	require.NotNil(t, order.ReturnedAt)
}

func TestListMineAndAll(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()

	for _, userID := range []uuid.UUID{alice, alice, bob} {
		product := f.seedProduct(t, 6000, true)
		f.seedCart(t, userID, map[*models.Product]int{product: 1})
		_, err := f.svc.Place(ctx, userID)
		require.NoError(t, err)
	}

	mine, err := f.svc.ListMine(ctx, alice, pagination.Page{})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := f.svc.ListAll(ctx, nil, pagination.Page{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	placed := enums.OrderStatusPlaced
	filtered, err := f.svc.ListAll(ctx, &placed, pagination.Page{})
	require.NoError(t, err)
	assert.Len(t, filtered, 3)

	paid := enums.OrderStatusPaid
	filtered, err = f.svc.ListAll(ctx, &paid, pagination.Page{})
	require.NoError(t, err)
	assert.Empty(t, filtered)
}
