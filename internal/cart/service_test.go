package cart

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/storelinehq/storeline-backend/pkg/db/models"
	"github.com/storelinehq/storeline-backend/pkg/enums"
	pkgerrors "github.com/storelinehq/storeline-backend/pkg/errors"
)

type sqliteTxRunner struct {
	db *gorm.DB
}

func (r sqliteTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func setupCartTestDB(t *testing.T) *gorm.DB {
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
  updated_at DATETIME,
  UNIQUE (cart_id, product_id)
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func newCartService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), sqliteTxRunner{db: db})
	require.NoError(t, err)
	return svc
}

func mustSeedProduct(t *testing.T, db *gorm.DB, priceCents int, discount *int, purchasable bool) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:                 uuid.New(),
		CategoryID:         uuid.New(),
		SubCategoryID:      uuid.New(),
		Brand:              "Nike",
		Name:               "Pegasus",
		Slug:               fmt.Sprintf("pegasus-%s", uuid.NewString()),
		PriceCents:         priceCents,
		DiscountPriceCents: discount,
		Purchasable:        purchasable,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func discountPtr(v int) *int { return &v }

func TestGetActiveCreatesCartOnFirstTouch(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()
	userID := uuid.New()

	record, err := svc.GetActive(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, enums.CartStatusActive, record.Status)
	assert.Empty(t, record.Items)

	again, err := svc.GetActive(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, again.ID)
}

func TestPutItemsSnapshotsEffectivePrice(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()
	userID := uuid.New()

	full := mustSeedProduct(t, db, 9000, nil, true)
	discounted := mustSeedProduct(t, db, 9000, discountPtr(6500), true)

	record, err := svc.PutItems(ctx, userID, []ItemInput{
		{ProductID: full.ID, Quantity: 1},
		{ProductID: discounted.ID, Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, record.Items, 2)

	prices := map[uuid.UUID]int{}
	for _, item := range record.Items {
		prices[item.ProductID] = item.UnitPriceCents
	}
	assert.Equal(t, 9000, prices[full.ID])
	assert.Equal(t, 6500, prices[discounted.ID])
}

func TestPutItemsReplacesQuantities(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()
	userID := uuid.New()

	first := mustSeedProduct(t, db, 5000, nil, true)
	second := mustSeedProduct(t, db, 3000, nil, true)

	_, err := svc.PutItems(ctx, userID, []ItemInput{
		{ProductID: first.ID, Quantity: 3},
		{ProductID: second.ID, Quantity: 1},
	})
	require.NoError(t, err)

	// the second put replaces the whole cart, dropping the other line
	record, err := svc.PutItems(ctx, userID, []ItemInput{
		{ProductID: first.ID, Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, record.Items, 1)
	assert.Equal(t, first.ID, record.Items[0].ProductID)
	assert.Equal(t, 1, record.Items[0].Quantity)
}

func TestPutItemsRejectsBadLines(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()
	userID := uuid.New()

	product := mustSeedProduct(t, db, 5000, nil, true)
	unavailable := mustSeedProduct(t, db, 5000, nil, false)

	cases := []struct {
		name  string
		lines []ItemInput
		code  pkgerrors.Code
	}{
		{"empty", nil, pkgerrors.CodeValidation},
		{"zero quantity", []ItemInput{{ProductID: product.ID, Quantity: 0}}, pkgerrors.CodeValidation},
		{"duplicate line", []ItemInput{{ProductID: product.ID, Quantity: 1}, {ProductID: product.ID, Quantity: 2}}, pkgerrors.CodeValidation},
		{"unknown product", []ItemInput{{ProductID: uuid.New(), Quantity: 1}}, pkgerrors.CodeNotFound},
		{"not purchasable", []ItemInput{{ProductID: unavailable.ID, Quantity: 1}}, pkgerrors.CodeStateConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.PutItems(ctx, userID, tc.lines)
			require.Error(t, err)
			assert.Equal(t, tc.code, pkgerrors.As(err).Code())
		})
	}
}

func TestRemoveItem(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()
	userID := uuid.New()

	product := mustSeedProduct(t, db, 5000, nil, true)
	_, err := svc.PutItems(ctx, userID, []ItemInput{{ProductID: product.ID, Quantity: 1}})
	require.NoError(t, err)

	record, err := svc.RemoveItem(ctx, userID, product.ID)
	require.NoError(t, err)
	assert.Empty(t, record.Items)

	_, err = svc.RemoveItem(ctx, userID, product.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestClearCart(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()
	userID := uuid.New()

	product := mustSeedProduct(t, db, 5000, nil, true)
	_, err := svc.PutItems(ctx, userID, []ItemInput{{ProductID: product.ID, Quantity: 2}})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, userID))

	record, err := svc.GetActive(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, record.Items)
	assert.Equal(t, enums.CartStatusActive, record.Status)
}
