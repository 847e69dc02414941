package catalog

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/storelinehq/storeline-backend/pkg/db/models"
)

// sqlite needs an explicit uuid default because the production schema relies
// on gen_random_uuid().
const sqliteUUIDDefault = `(lower(hex(randomblob(4))) || '-' || lower(hex(randomblob(2))) || '-4' || substr(lower(hex(randomblob(2))),2) || '-' || substr('89ab', abs(random()) % 4 + 1, 1) || substr(lower(hex(randomblob(2))),2) || '-' || lower(hex(randomblob(6))))`

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY DEFAULT ` + sqliteUUIDDefault + `,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  image_ordinal INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS sub_categories (
  id TEXT PRIMARY KEY DEFAULT ` + sqliteUUIDDefault + `,
  category_id TEXT NOT NULL,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS product_types (
  id TEXT PRIMARY KEY DEFAULT ` + sqliteUUIDDefault + `,
  sub_category_id TEXT NOT NULL,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS brands (
  id TEXT PRIMARY KEY DEFAULT ` + sqliteUUIDDefault + `,
  category_id TEXT NOT NULL,
  sub_category_id TEXT,
  name TEXT NOT NULL,
  products_count INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY DEFAULT ` + sqliteUUIDDefault + `,
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
		`CREATE TABLE IF NOT EXISTS product_specifications (
  id TEXT PRIMARY KEY DEFAULT ` + sqliteUUIDDefault + `,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  value TEXT NOT NULL
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func mustCreateCategory(t *testing.T, tx *gorm.DB, name, slug string) *models.Category {
	t.Helper()
	category := &models.Category{ID: uuid.New(), Name: name, Slug: slug}
	require.NoError(t, tx.Create(category).Error)
	return category
}

func mustCreateSubCategory(t *testing.T, tx *gorm.DB, categoryID uuid.UUID, name, slug string) *models.SubCategory {
	t.Helper()
	subCategory := &models.SubCategory{ID: uuid.New(), CategoryID: categoryID, Name: name, Slug: slug}
	require.NoError(t, tx.Create(subCategory).Error)
	return subCategory
}

func mustCreateType(t *testing.T, tx *gorm.DB, subCategoryID uuid.UUID, name, slug string) *models.ProductType {
	t.Helper()
	productType := &models.ProductType{ID: uuid.New(), SubCategoryID: subCategoryID, Name: name, Slug: slug}
	require.NoError(t, tx.Create(productType).Error)
	return productType
}

type testProduct struct {
	Brand              string
	PriceCents         int
	DiscountPriceCents *int
	Purchasable        bool
	SoldCount          int
	TypeID             *uuid.UUID
	Specs              map[string]string
}

func mustCreateProduct(t *testing.T, tx *gorm.DB, categoryID, subCategoryID uuid.UUID, input testProduct) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:                 uuid.New(),
		CategoryID:         categoryID,
		SubCategoryID:      subCategoryID,
		TypeID:             input.TypeID,
		Brand:              input.Brand,
		Name:               fmt.Sprintf("%s product", input.Brand),
		Slug:               fmt.Sprintf("product-%s", uuid.NewString()),
		PriceCents:         input.PriceCents,
		DiscountPriceCents: input.DiscountPriceCents,
		Purchasable:        input.Purchasable,
		SoldCount:          input.SoldCount,
	}
	require.NoError(t, tx.Create(product).Error)

	for slug, value := range input.Specs {
		spec := &models.ProductSpecification{
			ID:        uuid.New(),
			ProductID: product.ID,
			Name:      slug,
			Slug:      slug,
			Value:     value,
		}
		require.NoError(t, tx.Create(spec).Error)
	}
	return product
}

func intPtr(v int) *int {
	return &v
}
