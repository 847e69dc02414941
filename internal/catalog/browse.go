package catalog

import (
	"context"

	"gorm.io/gorm"

	"github.com/storelinehq/storeline-backend/pkg/db/models"
)

// ListCategories loads every category with its sub-categories, types, and
// denormalized brand counts.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := r.db.WithContext(ctx).
		Preload("SubCategories", func(db *gorm.DB) *gorm.DB {
			return db.Order("sub_categories.name ASC")
		}).
		Preload("SubCategories.Types", func(db *gorm.DB) *gorm.DB {
			return db.Order("product_types.name ASC")
		}).
		Preload("Brands", func(db *gorm.DB) *gorm.DB {
			return db.Order("brands.name ASC")
		}).
		Order("image_ordinal ASC").
		Order("name ASC").
		Find(&rows).
		Error
	return rows, err
}

// GetCategoryTreeBySlug loads one category with the same associations as
// ListCategories.
func (r *Repository) GetCategoryTreeBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Preload("SubCategories", func(db *gorm.DB) *gorm.DB {
			return db.Order("sub_categories.name ASC")
		}).
		Preload("SubCategories.Types", func(db *gorm.DB) *gorm.DB {
			return db.Order("product_types.name ASC")
		}).
		Preload("Brands", func(db *gorm.DB) *gorm.DB {
			return db.Order("brands.name ASC")
		}).
		First(&category, "slug = ?", slug).
		Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// FindProductBySlug loads one product with its specifications.
func (r *Repository) FindProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Specifications").
		First(&product, "slug = ?", slug).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func summarizeCategory(category models.Category) CategorySummary {
	subCategories := make([]SubCategorySummary, 0, len(category.SubCategories))
	for _, subCategory := range category.SubCategories {
		types := make([]ProductTypeBrief, 0, len(subCategory.Types))
		for _, productType := range subCategory.Types {
			types = append(types, ProductTypeBrief{
				ID:   productType.ID,
				Name: productType.Name,
				Slug: productType.Slug,
			})
		}
		subCategories = append(subCategories, SubCategorySummary{
			ID:    subCategory.ID,
			Name:  subCategory.Name,
			Slug:  subCategory.Slug,
			Types: types,
		})
	}

	brands := make([]BrandFacet, 0, len(category.Brands))
	for _, brand := range category.Brands {
		brands = append(brands, BrandFacet{Name: brand.Name, Count: brand.ProductsCount})
	}

	return CategorySummary{
		ID:            category.ID,
		Name:          category.Name,
		Slug:          category.Slug,
		ImageOrdinal:  category.ImageOrdinal,
		SubCategories: subCategories,
		Brands:        brands,
	}
}
