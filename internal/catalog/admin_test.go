package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/storelinehq/storeline-backend/pkg/db/models"
	pkgerrors "github.com/storelinehq/storeline-backend/pkg/errors"
)

type sqliteTxRunner struct {
	db *gorm.DB
}

func (r sqliteTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestAdminService(t *testing.T, db *gorm.DB) AdminService {
	t.Helper()
	svc, err := NewAdminService(NewRepository(db), sqliteTxRunner{db: db})
	require.NoError(t, err)
	return svc
}

func brandCount(t *testing.T, db *gorm.DB, categoryID, subCategoryID uuid.UUID, name string) (int, bool) {
	t.Helper()
	var brand models.Brand
	err := db.Where("category_id = ? AND sub_category_id = ? AND name = ?", categoryID, subCategoryID, name).
		First(&brand).Error
	if err != nil {
		require.ErrorIs(t, err, gorm.ErrRecordNotFound)
		return 0, false
	}
	return brand.ProductsCount, true
}

func TestCreateCategoryConflict(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc := newTestAdminService(t, db)
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, CategoryInput{Name: "Shoes", Slug: "shoes"})
	require.NoError(t, err)

	_, err = svc.CreateCategory(ctx, CategoryInput{Name: "Shoes Again", Slug: "shoes"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestCreateCategoryValidation(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc := newTestAdminService(t, db)

	_, err := svc.CreateCategory(context.Background(), CategoryInput{Name: "", Slug: "shoes"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestCreateSubCategoryUnknownParent(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc := newTestAdminService(t, db)

	_, err := svc.CreateSubCategory(context.Background(), uuid.New(), NamedSlugInput{Name: "Running", Slug: "running"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestCreateProductMaintainsBrandCount(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc := newTestAdminService(t, db)
	ctx := context.Background()

	category := mustCreateCategory(t, db, "Shoes", "shoes")
	subCategory := mustCreateSubCategory(t, db, category.ID, "Running", "running")

	input := ProductInput{
		CategoryID:    category.ID,
		SubCategoryID: subCategory.ID,
		Brand:         "Nike",
		Name:          "Pegasus",
		Slug:          "pegasus",
		PriceCents:    12000,
		Purchasable:   true,
		Specifications: []SpecificationInput{
			{Name: "Size", Slug: "size", Value: "42"},
		},
	}
	product, err := svc.CreateProduct(ctx, input)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, product.ID)

	count, ok := brandCount(t, db, category.ID, subCategory.ID, "Nike")
	require.True(t, ok)
	assert.Equal(t, 1, count)

	input.Slug = "vomero"
	input.Name = "Vomero"
	_, err = svc.CreateProduct(ctx, input)
	require.NoError(t, err)

	count, _ = brandCount(t, db, category.ID, subCategory.ID, "Nike")
	assert.Equal(t, 2, count)
}

func TestCreateProductDuplicateSlugRollsBack(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc := newTestAdminService(t, db)
	ctx := context.Background()

	category := mustCreateCategory(t, db, "Shoes", "shoes")
	subCategory := mustCreateSubCategory(t, db, category.ID, "Running", "running")

	input := ProductInput{
		CategoryID:    category.ID,
		SubCategoryID: subCategory.ID,
		Brand:         "Nike",
		Name:          "Pegasus",
		Slug:          "pegasus",
		PriceCents:    12000,
		Purchasable:   true,
	}
	_, err := svc.CreateProduct(ctx, input)
	require.NoError(t, err)

	_, err = svc.CreateProduct(ctx, input)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())

	// the failed insert must not bump the brand count
	count, _ := brandCount(t, db, category.ID, subCategory.ID, "Nike")
	assert.Equal(t, 1, count)
}

func TestCreateProductDiscountValidation(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc := newTestAdminService(t, db)

	category := mustCreateCategory(t, db, "Shoes", "shoes")
	subCategory := mustCreateSubCategory(t, db, category.ID, "Running", "running")

	_, err := svc.CreateProduct(context.Background(), ProductInput{
		CategoryID:         category.ID,
		SubCategoryID:      subCategory.ID,
		Brand:              "Nike",
		Name:               "Pegasus",
		Slug:               "pegasus",
		PriceCents:         10000,
		DiscountPriceCents: intPtr(12000),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestUpdateProductMovesBrandCountAndReplacesSpecs(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc := newTestAdminService(t, db)
	ctx := context.Background()

	category := mustCreateCategory(t, db, "Shoes", "shoes")
	subCategory := mustCreateSubCategory(t, db, category.ID, "Running", "running")

	input := ProductInput{
		CategoryID:    category.ID,
		SubCategoryID: subCategory.ID,
		Brand:         "Nike",
		Name:          "Pegasus",
		Slug:          "pegasus",
		PriceCents:    12000,
		Purchasable:   true,
		Specifications: []SpecificationInput{
			{Name: "Size", Slug: "size", Value: "42"},
			{Name: "Material", Slug: "material", Value: "mesh"},
		},
	}
	product, err := svc.CreateProduct(ctx, input)
	require.NoError(t, err)

	input.Brand = "Puma"
	input.Specifications = []SpecificationInput{
		{Name: "Size", Slug: "size", Value: "43"},
	}
	updated, err := svc.UpdateProduct(ctx, product.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "Puma", updated.Brand)

	// old brand row drained to zero and was removed
	_, ok := brandCount(t, db, category.ID, subCategory.ID, "Nike")
	assert.False(t, ok)
	count, _ := brandCount(t, db, category.ID, subCategory.ID, "Puma")
	assert.Equal(t, 1, count)

	// specification rows replaced wholesale
	var specs []models.ProductSpecification
	require.NoError(t, db.Where("product_id = ?", product.ID).Find(&specs).Error)
	require.Len(t, specs, 1)
	assert.Equal(t, "43", specs[0].Value)
}

func TestUpdateProductNotFound(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc := newTestAdminService(t, db)

	category := mustCreateCategory(t, db, "Shoes", "shoes")
	subCategory := mustCreateSubCategory(t, db, category.ID, "Running", "running")

	_, err := svc.UpdateProduct(context.Background(), uuid.New(), ProductInput{
		CategoryID:    category.ID,
		SubCategoryID: subCategory.ID,
		Brand:         "Nike",
		Name:          "Pegasus",
		Slug:          "pegasus",
		PriceCents:    12000,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestDeleteProductDecrementsBrandCount(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc := newTestAdminService(t, db)
	ctx := context.Background()

	category := mustCreateCategory(t, db, "Shoes", "shoes")
	subCategory := mustCreateSubCategory(t, db, category.ID, "Running", "running")

	input := ProductInput{
		CategoryID:    category.ID,
		SubCategoryID: subCategory.ID,
		Brand:         "Nike",
		Name:          "Pegasus",
		Slug:          "pegasus",
		PriceCents:    12000,
		Purchasable:   true,
	}
	first, err := svc.CreateProduct(ctx, input)
	require.NoError(t, err)

	input.Slug = "vomero"
	input.Name = "Vomero"
	_, err = svc.CreateProduct(ctx, input)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProduct(ctx, first.ID))
	count, ok := brandCount(t, db, category.ID, subCategory.ID, "Nike")
	require.True(t, ok)
	assert.Equal(t, 1, count)
}
