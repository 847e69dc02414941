package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storelinehq/storeline-backend/pkg/db/models"
	"github.com/storelinehq/storeline-backend/pkg/enums"
	"github.com/storelinehq/storeline-backend/pkg/pagination"
)

// Repository wires together the catalog persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindCategoryBySlug loads a category without associations.
func (r *Repository) FindCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// FindCategoryByID loads a category by primary key.
func (r *Repository) FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// FindSubCategoryBySlug loads a sub-category scoped to its parent category.
func (r *Repository) FindSubCategoryBySlug(ctx context.Context, categoryID uuid.UUID, slug string) (*models.SubCategory, error) {
	var subCategory models.SubCategory
	err := r.db.WithContext(ctx).
		First(&subCategory, "category_id = ? AND slug = ?", categoryID, slug).
		Error
	if err != nil {
		return nil, err
	}
	return &subCategory, nil
}

// FindSubCategoryByID loads a sub-category by primary key.
func (r *Repository) FindSubCategoryByID(ctx context.Context, id uuid.UUID) (*models.SubCategory, error) {
	var subCategory models.SubCategory
	if err := r.db.WithContext(ctx).First(&subCategory, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &subCategory, nil
}

// FindTypeBySlug loads a product type scoped to its sub-category.
func (r *Repository) FindTypeBySlug(ctx context.Context, subCategoryID uuid.UUID, slug string) (*models.ProductType, error) {
	var productType models.ProductType
	err := r.db.WithContext(ctx).
		First(&productType, "sub_category_id = ? AND slug = ?", subCategoryID, slug).
		Error
	if err != nil {
		return nil, err
	}
	return &productType, nil
}

// ListProducts returns the sorted, paginated page of products matching the
// scope.
func (r *Repository) ListProducts(ctx context.Context, scope Scope, sortType enums.SortType, page pagination.Page) ([]models.Product, error) {
	qb := scope.Apply(r.db.WithContext(ctx).Model(&models.Product{}))
	qb = ApplySort(qb, sortType)
	qb = qb.Offset(page.Start).Limit(page.Quantity)

	var rows []models.Product
	if err := qb.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountProducts returns the size of the fully filtered pre-pagination set.
func (r *Repository) CountProducts(ctx context.Context, scope Scope) (int64, error) {
	var count int64
	qb := scope.Apply(r.db.WithContext(ctx).Model(&models.Product{}))
	if err := qb.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// BrandFacet counts products per brand across the provided scope. The caller
// passes the scope with the brand filter already excluded.
func (r *Repository) BrandFacet(ctx context.Context, scope Scope) ([]BrandFacet, error) {
	qb := scope.Apply(r.db.WithContext(ctx).Model(&models.Product{}))
	qb = qb.Select("products.brand AS name, COUNT(*) AS count").
		Group("products.brand").
		Order("products.brand ASC")

	var facets []BrandFacet
	if err := qb.Scan(&facets).Error; err != nil {
		return nil, err
	}
	return facets, nil
}

// ListSpecDimensions returns the distinct specification slugs present across
// the scoped product family, with a display name per slug.
func (r *Repository) ListSpecDimensions(ctx context.Context, scope Scope) ([]SpecDimension, error) {
	qb := scope.Apply(r.db.WithContext(ctx).Model(&models.Product{}))
	qb = qb.Joins("JOIN product_specifications ps ON ps.product_id = products.id").
		Select("ps.slug AS slug, MIN(ps.name) AS name").
		Group("ps.slug").
		Order("ps.slug ASC")

	var dimensions []SpecDimension
	if err := qb.Scan(&dimensions).Error; err != nil {
		return nil, err
	}
	return dimensions, nil
}

// SpecFacetValues counts distinct products per value of one specification
// dimension across the provided scope. The caller passes the scope with that
// dimension's own filter already excluded.
func (r *Repository) SpecFacetValues(ctx context.Context, scope Scope, slug string) ([]FacetValue, error) {
	qb := scope.Apply(r.db.WithContext(ctx).Model(&models.Product{}))
	qb = qb.Joins("JOIN product_specifications ps ON ps.product_id = products.id").
		Where("ps.slug = ?", slug).
		Select("ps.value AS value, COUNT(DISTINCT products.id) AS count").
		Group("ps.value").
		Order("ps.value ASC")

	var values []FacetValue
	if err := qb.Scan(&values).Error; err != nil {
		return nil, err
	}
	return values, nil
}

// PriceRange returns the min and max effective price over the fully filtered
// pre-pagination set. Both are nil when the set is empty.
func (r *Repository) PriceRange(ctx context.Context, scope Scope) (*int, *int, error) {
	type priceRow struct {
		Min *int
		Max *int
	}

	qb := scope.Apply(r.db.WithContext(ctx).Model(&models.Product{}))
	qb = qb.Select("MIN(" + effectivePriceExpr + ") AS min, MAX(" + effectivePriceExpr + ") AS max")

	var row priceRow
	if err := qb.Scan(&row).Error; err != nil {
		return nil, nil, err
	}
	return row.Min, row.Max, nil
}
