package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storelinehq/storeline-backend/pkg/db"
	"github.com/storelinehq/storeline-backend/pkg/db/models"
	pkgerrors "github.com/storelinehq/storeline-backend/pkg/errors"
)

// AdminService exposes the catalog management operations behind the
// manager/admin routes.
type AdminService interface {
	CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	CreateSubCategory(ctx context.Context, categoryID uuid.UUID, input NamedSlugInput) (*models.SubCategory, error)
	DeleteSubCategory(ctx context.Context, id uuid.UUID) error
	CreateType(ctx context.Context, subCategoryID uuid.UUID, input NamedSlugInput) (*models.ProductType, error)
	DeleteType(ctx context.Context, id uuid.UUID) error
	CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

// CategoryInput is the create/update payload for a category.
type CategoryInput struct {
	Name         string
	Slug         string
	ImageOrdinal int
}

// NamedSlugInput is the shared create payload for sub-categories and types.
type NamedSlugInput struct {
	Name string
	Slug string
}

// SpecificationInput is one specification row on a product payload.
type SpecificationInput struct {
	Name  string
	Slug  string
	Value string
}

// ProductInput is the create/update payload for a product. Specification
// rows are replaced wholesale on update.
type ProductInput struct {
	CategoryID         uuid.UUID
	SubCategoryID      uuid.UUID
	TypeID             *uuid.UUID
	Brand              string
	Name               string
	Slug               string
	PriceCents         int
	DiscountPriceCents *int
	Purchasable        bool
	Color              *string
	ColorGroup         *string
	Specifications     []SpecificationInput
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type adminService struct {
	repo *Repository
	tx   txRunner
}

// NewAdminService constructs the catalog management service.
func NewAdminService(repo *Repository, tx txRunner) (AdminService, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &adminService{repo: repo, tx: tx}, nil
}

func (s *adminService) CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error) {
	if err := validateNamedSlug(input.Name, input.Slug); err != nil {
		return nil, err
	}
	category := &models.Category{
		ID:           uuid.New(),
		Name:         input.Name,
		Slug:         input.Slug,
		ImageOrdinal: input.ImageOrdinal,
	}
	if err := s.repo.db.WithContext(ctx).Create(category).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create category")
	}
	return category, nil
}

func (s *adminService) UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*models.Category, error) {
	if err := validateNamedSlug(input.Name, input.Slug); err != nil {
		return nil, err
	}
	category, err := s.repo.FindCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
	}
	category.Name = input.Name
	category.Slug = input.Slug
	category.ImageOrdinal = input.ImageOrdinal
	if err := s.repo.db.WithContext(ctx).Save(category).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update category")
	}
	return category, nil
}

func (s *adminService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	result := s.repo.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{})
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, result.Error, "delete category")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return nil
}

func (s *adminService) CreateSubCategory(ctx context.Context, categoryID uuid.UUID, input NamedSlugInput) (*models.SubCategory, error) {
	if err := validateNamedSlug(input.Name, input.Slug); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindCategoryByID(ctx, categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
	}
	subCategory := &models.SubCategory{
		ID:         uuid.New(),
		CategoryID: categoryID,
		Name:       input.Name,
		Slug:       input.Slug,
	}
	if err := s.repo.db.WithContext(ctx).Create(subCategory).Error; err != nil {
		if db.IsUniqueViolation(err, "idx_sub_categories_category_slug") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sub-category slug already exists in category")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create sub-category")
	}
	return subCategory, nil
}

func (s *adminService) DeleteSubCategory(ctx context.Context, id uuid.UUID) error {
	result := s.repo.db.WithContext(ctx).Where("id = ?", id).Delete(&models.SubCategory{})
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, result.Error, "delete sub-category")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "sub-category not found")
	}
	return nil
}

func (s *adminService) CreateType(ctx context.Context, subCategoryID uuid.UUID, input NamedSlugInput) (*models.ProductType, error) {
	if err := validateNamedSlug(input.Name, input.Slug); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindSubCategoryByID(ctx, subCategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sub-category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load sub-category")
	}
	productType := &models.ProductType{
		ID:            uuid.New(),
		SubCategoryID: subCategoryID,
		Name:          input.Name,
		Slug:          input.Slug,
	}
	if err := s.repo.db.WithContext(ctx).Create(productType).Error; err != nil {
		if db.IsUniqueViolation(err, "idx_product_types_sub_category_slug") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "type slug already exists in sub-category")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create type")
	}
	return productType, nil
}

func (s *adminService) DeleteType(ctx context.Context, id uuid.UUID) error {
	result := s.repo.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ProductType{})
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, result.Error, "delete type")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "type not found")
	}
	return nil
}

// CreateProduct inserts the product with its specification rows and bumps
// the brand's running count in the same transaction.
func (s *adminService) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	product := productFromInput(input)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(product).Error; err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "product slug already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
		}
		return adjustBrandCount(tx, input.CategoryID, &input.SubCategoryID, input.Brand, 1)
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct saves the product and replaces its specification rows
// wholesale. Brand counts move when the brand changes.
func (s *adminService) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*models.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var existing models.Product
		if err := tx.First(&existing, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}

		previousBrand := existing.Brand
		previousCategory := existing.CategoryID
		previousSubCategory := existing.SubCategoryID

		existing.CategoryID = input.CategoryID
		existing.SubCategoryID = input.SubCategoryID
		existing.TypeID = input.TypeID
		existing.Brand = input.Brand
		existing.Name = input.Name
		existing.Slug = input.Slug
		existing.PriceCents = input.PriceCents
		existing.DiscountPriceCents = input.DiscountPriceCents
		existing.Purchasable = input.Purchasable
		existing.Color = input.Color
		existing.ColorGroup = input.ColorGroup

		if err := tx.Save(&existing).Error; err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "product slug already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
		}

		if err := tx.Where("product_id = ?", existing.ID).Delete(&models.ProductSpecification{}).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear specifications")
		}
		specs := specRowsFromInput(existing.ID, input.Specifications)
		if len(specs) > 0 {
			if err := tx.Create(&specs).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replace specifications")
			}
		}

		brandMoved := previousBrand != input.Brand ||
			previousCategory != input.CategoryID ||
			previousSubCategory != input.SubCategoryID
		if brandMoved {
			if err := adjustBrandCount(tx, previousCategory, &previousSubCategory, previousBrand, -1); err != nil {
				return err
			}
			if err := adjustBrandCount(tx, input.CategoryID, &input.SubCategoryID, input.Brand, 1); err != nil {
				return err
			}
		}

		updated = &existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteProduct removes the product and decrements its brand count in the
// same transaction. Specification rows go with the cascade.
func (s *adminService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var existing models.Product
		if err := tx.First(&existing, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}
		if err := tx.Where("id = ?", id).Delete(&models.Product{}).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
		}
		return adjustBrandCount(tx, existing.CategoryID, &existing.SubCategoryID, existing.Brand, -1)
	})
}

func productFromInput(input ProductInput) *models.Product {
	id := uuid.New()
	return &models.Product{
		ID:                 id,
		CategoryID:         input.CategoryID,
		SubCategoryID:      input.SubCategoryID,
		TypeID:             input.TypeID,
		Brand:              input.Brand,
		Name:               input.Name,
		Slug:               input.Slug,
		PriceCents:         input.PriceCents,
		DiscountPriceCents: input.DiscountPriceCents,
		Purchasable:        input.Purchasable,
		Color:              input.Color,
		ColorGroup:         input.ColorGroup,
		Specifications:     specRowsFromInput(id, input.Specifications),
	}
}

func specRowsFromInput(productID uuid.UUID, inputs []SpecificationInput) []models.ProductSpecification {
	rows := make([]models.ProductSpecification, 0, len(inputs))
	for _, input := range inputs {
		rows = append(rows, models.ProductSpecification{
			ID:        uuid.New(),
			ProductID: productID,
			Name:      input.Name,
			Slug:      input.Slug,
			Value:     input.Value,
		})
	}
	return rows
}

// adjustBrandCount upserts the denormalized brand row and moves its running
// count. Rows never go negative and empty rows are removed.
func adjustBrandCount(tx *gorm.DB, categoryID uuid.UUID, subCategoryID *uuid.UUID, brandName string, delta int) error {
	var brand models.Brand
	qb := tx.Where("category_id = ? AND name = ?", categoryID, brandName)
	if subCategoryID != nil {
		qb = qb.Where("sub_category_id = ?", *subCategoryID)
	} else {
		qb = qb.Where("sub_category_id IS NULL")
	}

	err := qb.First(&brand).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if delta <= 0 {
			return nil
		}
		brand = models.Brand{
			ID:            uuid.New(),
			CategoryID:    categoryID,
			SubCategoryID: subCategoryID,
			Name:          brandName,
			ProductsCount: delta,
		}
		if err := tx.Create(&brand).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create brand row")
		}
		return nil
	case err != nil:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load brand row")
	}

	brand.ProductsCount += delta
	if brand.ProductsCount <= 0 {
		if err := tx.Where("id = ?", brand.ID).Delete(&models.Brand{}).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove empty brand row")
		}
		return nil
	}
	if err := tx.Save(&brand).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update brand count")
	}
	return nil
}

func validateNamedSlug(name, slug string) error {
	if strings.TrimSpace(name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if strings.TrimSpace(slug) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	return nil
}

func validateProductInput(input ProductInput) error {
	if input.CategoryID == uuid.Nil || input.SubCategoryID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "category and sub-category are required")
	}
	if strings.TrimSpace(input.Brand) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "brand is required")
	}
	if err := validateNamedSlug(input.Name, input.Slug); err != nil {
		return err
	}
	if input.PriceCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if input.DiscountPriceCents != nil && (*input.DiscountPriceCents < 0 || *input.DiscountPriceCents > input.PriceCents) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount price must be between zero and the base price")
	}
	return nil
}
