package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storelinehq/storeline-backend/pkg/enums"
	"github.com/storelinehq/storeline-backend/pkg/pagination"
)

func TestListProductsPurchasableOnly(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	category := mustCreateCategory(t, db, "Shoes", "shoes")
	subCategory := mustCreateSubCategory(t, db, category.ID, "Running", "running")

	mustCreateProduct(t, db, category.ID, subCategory.ID, testProduct{Brand: "Nike", PriceCents: 5000, Purchasable: true})
	mustCreateProduct(t, db, category.ID, subCategory.ID, testProduct{Brand: "Nike", PriceCents: 6000, Purchasable: false})

	scope := Scope{CategoryID: category.ID, SubCategoryID: &subCategory.ID}
	rows, err := repo.ListProducts(ctx, scope, enums.SortTypeClassic, pagination.Page{Quantity: 10})
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.True(t, rows[0].Purchasable)
	assert.Equal(t, 5000, rows[0].PriceCents)
}

func TestBrandFacetCountsWithoutOwnFilter(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	category := mustCreateCategory(t, db, "Shoes", "shoes")
	subCategory := mustCreateSubCategory(t, db, category.ID, "Running", "running")

	mustCreateProduct(t, db, category.ID, subCategory.ID, testProduct{Brand: "Nike", PriceCents: 5000, Purchasable: true})
	mustCreateProduct(t, db, category.ID, subCategory.ID, testProduct{Brand: "Nike", PriceCents: 7000, Purchasable: true})
	mustCreateProduct(t, db, category.ID, subCategory.ID, testProduct{Brand: "Puma", PriceCents: 4000, Purchasable: true})

	scope := Scope{
		CategoryID:    category.ID,
		SubCategoryID: &subCategory.ID,
		Brands:        []string{"Nike"},
	}

	// the brand facet ignores the brand filter itself
	facets, err := repo.BrandFacet(ctx, scope.WithoutBrands())
	require.NoError(t, err)
	assert.Equal(t, []BrandFacet{
		{Name: "Nike", Count: 2},
		{Name: "Puma", Count: 1},
	}, facets)

	// but honors every other active filter
	scope.MinPrice = intPtr(4500)
	scope.MaxPrice = intPtr(6000)
	facets, err = repo.BrandFacet(ctx, scope.WithoutBrands())
	require.NoError(t, err)
	assert.Equal(t, []BrandFacet{{Name: "Nike", Count: 1}}, facets)
}

func TestSpecFacetExcludesOwnDimensionOnly(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	category := mustCreateCategory(t, db, "Shoes", "shoes")
	subCategory := mustCreateSubCategory(t, db, category.ID, "Running", "running")
	productType := mustCreateType(t, db, subCategory.ID, "Trail", "trail")

	mustCreateProduct(t, db, category.ID, subCategory.ID, testProduct{
		Brand: "Nike", PriceCents: 5000, Purchasable: true, TypeID: &productType.ID,
		Specs: map[string]string{"size": "42", "material": "mesh"},
	})
	mustCreateProduct(t, db, category.ID, subCategory.ID, testProduct{
		Brand: "Nike", PriceCents: 6000, Purchasable: true, TypeID: &productType.ID,
		Specs: map[string]string{"size": "43", "material": "mesh"},
	})
	mustCreateProduct(t, db, category.ID, subCategory.ID, testProduct{
		Brand: "Nike", PriceCents: 7000, Purchasable: true, TypeID: &productType.ID,
		Specs: map[string]string{"size": "42", "material": "leather"},
	})

	scope := Scope{
		CategoryID:    category.ID,
		SubCategoryID: &subCategory.ID,
		TypeID:        &productType.ID,
		Specs: map[string][]string{
			"size":     {"42"},
			"material": {"mesh"},
		},
	}

	// size facet: material=mesh still applies, size=42 does not
	sizeValues, err := repo.SpecFacetValues(ctx, scope.WithoutSpec("size"), "size")
	require.NoError(t, err)
	assert.Equal(t, []FacetValue{
		{Value: "42", Count: 1},
		{Value: "43", Count: 1},
	}, sizeValues)

	// material facet: size=42 still applies, material=mesh does not
	materialValues, err := repo.SpecFacetValues(ctx, scope.WithoutSpec("material"), "material")
	require.NoError(t, err)
	assert.Equal(t, []FacetValue{
		{Value: "leather", Count: 1},
		{Value: "mesh", Count: 1},
	}, materialValues)

	// the request scope itself is untouched by the exclusions
	assert.Len(t, scope.Specs, 2)
}

func TestListSpecDimensions(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	category := mustCreateCategory(t, db, "Shoes", "shoes")
	subCategory := mustCreateSubCategory(t, db, category.ID, "Running", "running")
	productType := mustCreateType(t, db, subCategory.ID, "Trail", "trail")

	mustCreateProduct(t, db, category.ID, subCategory.ID, testProduct{
		Brand: "Nike", PriceCents: 5000, Purchasable: true, TypeID: &productType.ID,
		Specs: map[string]string{"size": "42", "material": "mesh"},
	})

	dimensions, err := repo.ListSpecDimensions(ctx, Scope{
		CategoryID:    category.ID,
		SubCategoryID: &subCategory.ID,
		TypeID:        &productType.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, []SpecDimension{
		{Slug: "material", Name: "material"},
		{Slug: "size", Name: "size"},
	}, dimensions)
}

func TestSortByEffectivePrice(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	category := mustCreateCategory(t, db, "Shoes", "shoes")
	subCategory := mustCreateSubCategory(t, db, category.ID, "Running", "running")

	// base 9000 but discounted to 3000: sorts as the cheapest
	mustCreateProduct(t, db, category.ID, subCategory.ID, testProduct{Brand: "Nike", PriceCents: 9000, DiscountPriceCents: intPtr(3000), Purchasable: true})
	mustCreateProduct(t, db, category.ID, subCategory.ID, testProduct{Brand: "Puma", PriceCents: 4000, Purchasable: true})
	mustCreateProduct(t, db, category.ID, subCategory.ID, testProduct{Brand: "Asics", PriceCents: 8000, Purchasable: true})

	scope := Scope{CategoryID: category.ID, SubCategoryID: &subCategory.ID}

	rows, err := repo.ListProducts(ctx, scope, enums.SortTypeMinPrice, pagination.Page{Quantity: 10})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	prices := []int{rows[0].EffectivePriceCents(), rows[1].EffectivePriceCents(), rows[2].EffectivePriceCents()}
	assert.Equal(t, []int{3000, 4000, 8000}, prices)

	rows, err = repo.ListProducts(ctx, scope, enums.SortTypeMaxPrice, pagination.Page{Quantity: 10})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	prices = []int{rows[0].EffectivePriceCents(), rows[1].EffectivePriceCents(), rows[2].EffectivePriceCents()}
	assert.Equal(t, []int{8000, 4000, 3000}, prices)
}

func TestSortByBestSeller(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	category := mustCreateCategory(t, db, "Shoes", "shoes")
	subCategory := mustCreateSubCategory(t, db, category.ID, "Running", "running")

	mustCreateProduct(t, db, category.ID, subCategory.ID, testProduct{Brand: "Nike", PriceCents: 5000, Purchasable: true, SoldCount: 3})
	mustCreateProduct(t, db, category.ID, subCategory.ID, testProduct{Brand: "Puma", PriceCents: 4000, Purchasable: true, SoldCount: 11})

	rows, err := repo.ListProducts(ctx, Scope{CategoryID: category.ID, SubCategoryID: &subCategory.ID}, enums.SortTypeBestSeller, pagination.Page{Quantity: 10})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Puma", rows[0].Brand)
	assert.Equal(t, "Nike", rows[1].Brand)
}

func TestPaginationSlices(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	category := mustCreateCategory(t, db, "Shoes", "shoes")
	subCategory := mustCreateSubCategory(t, db, category.ID, "Running", "running")

	for i := 0; i < 5; i++ {
		mustCreateProduct(t, db, category.ID, subCategory.ID, testProduct{Brand: "Nike", PriceCents: 1000 * (i + 1), Purchasable: true})
	}

	scope := Scope{CategoryID: category.ID, SubCategoryID: &subCategory.ID}

	page, err := repo.ListProducts(ctx, scope, enums.SortTypeMinPrice, pagination.Page{Start: 2, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, 3000, page[0].PriceCents)
	assert.Equal(t, 4000, page[1].PriceCents)

	// shorter tail page
	page, err = repo.ListProducts(ctx, scope, enums.SortTypeMinPrice, pagination.Page{Start: 4, Quantity: 10})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, 5000, page[0].PriceCents)
}

func TestPriceRange(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	category := mustCreateCategory(t, db, "Shoes", "shoes")
	subCategory := mustCreateSubCategory(t, db, category.ID, "Running", "running")

	mustCreateProduct(t, db, category.ID, subCategory.ID, testProduct{Brand: "Nike", PriceCents: 9000, DiscountPriceCents: intPtr(2500), Purchasable: true})
	mustCreateProduct(t, db, category.ID, subCategory.ID, testProduct{Brand: "Puma", PriceCents: 7000, Purchasable: true})

	min, max, err := repo.PriceRange(ctx, Scope{CategoryID: category.ID, SubCategoryID: &subCategory.ID})
	require.NoError(t, err)
	require.NotNil(t, min)
	require.NotNil(t, max)
	assert.Equal(t, 2500, *min)
	assert.Equal(t, 7000, *max)
}

func TestPriceRangeEmptySet(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	category := mustCreateCategory(t, db, "Shoes", "shoes")

	min, max, err := repo.PriceRange(ctx, Scope{CategoryID: category.ID})
	require.NoError(t, err)
	assert.Nil(t, min)
	assert.Nil(t, max)
}

func TestSlugResolutionIsScoped(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	shoes := mustCreateCategory(t, db, "Shoes", "shoes")
	bags := mustCreateCategory(t, db, "Bags", "bags")
	running := mustCreateSubCategory(t, db, shoes.ID, "Running", "running")
	mustCreateSubCategory(t, db, bags.ID, "Travel", "travel")

	found, err := repo.FindSubCategoryBySlug(ctx, shoes.ID, "running")
	require.NoError(t, err)
	assert.Equal(t, running.ID, found.ID)

	_, err = repo.FindSubCategoryBySlug(ctx, bags.ID, "running")
	require.Error(t, err)
}
