package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storelinehq/storeline-backend/pkg/config"
	pkgerrors "github.com/storelinehq/storeline-backend/pkg/errors"
	"github.com/storelinehq/storeline-backend/pkg/metrics"
)

const (
	variantWeb    = "web"
	variantMobile = "mobile"
)

// Service exposes storefront catalog reads: faceted filtering and browsing.
type Service interface {
	FilterShop(ctx context.Context, input FilterShopInput) (*FilterResult, error)
	FilterMobile(ctx context.Context, input FilterMobileInput) (*MobileFilterResult, error)
	ListCategories(ctx context.Context) ([]CategorySummary, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*CategorySummary, error)
	GetProductBySlug(ctx context.Context, slug string) (*ProductDetail, error)
}

// FilterShopInput carries the slug path plus the parsed query.
type FilterShopInput struct {
	CategorySlug    string
	SubCategorySlug string
	Query           *FilterQuery
}

// FilterMobileInput pins the category and sub-category by id. The mobile
// client never sends slugs.
type FilterMobileInput struct {
	CategoryID    uuid.UUID
	SubCategoryID uuid.UUID
	Query         *FilterQuery
}

type commentStatsReader interface {
	ProductRatingSummary(ctx context.Context, productID uuid.UUID) (int, *float64, error)
}

type service struct {
	repo         *Repository
	commentStats commentStatsReader
	metrics      *metrics.CatalogMetrics
	cfg          config.CatalogConfig
}

// NewService constructs the catalog read service.
func NewService(repo *Repository, commentStats commentStatsReader, catalogMetrics *metrics.CatalogMetrics, cfg config.CatalogConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if commentStats == nil {
		return nil, fmt.Errorf("comment stats reader required")
	}
	return &service{
		repo:         repo,
		commentStats: commentStats,
		metrics:      catalogMetrics,
		cfg:          cfg,
	}, nil
}

// FilterShop runs the faceted web filter for a category/sub-category path.
func (s *service) FilterShop(ctx context.Context, input FilterShopInput) (*FilterResult, error) {
	started := time.Now()
	result, err := s.filterShop(ctx, input)
	if err != nil {
		s.metrics.IncFailure(variantWeb)
		return nil, err
	}
	s.metrics.ObserveFilter(variantWeb, time.Since(started), len(result.Products))
	return result, nil
}

func (s *service) filterShop(ctx context.Context, input FilterShopInput) (*FilterResult, error) {
	query := input.Query
	if query == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "filter query is required")
	}

	category, err := s.repo.FindCategoryBySlug(ctx, input.CategorySlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return emptyFilterResult(query), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve category slug")
	}

	scope := Scope{
		CategoryID: category.ID,
		ProductIDs: query.ProductIDs,
		Brands:     query.Brands,
		MinPrice:   query.MinPrice,
		MaxPrice:   query.MaxPrice,
		Specs:      query.Specs,
	}

	if input.SubCategorySlug != "" {
		subCategory, err := s.repo.FindSubCategoryBySlug(ctx, category.ID, input.SubCategorySlug)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return emptyFilterResult(query), nil
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve sub-category slug")
		}
		scope.SubCategoryID = &subCategory.ID
	}

	if query.TypeSlug != "" {
		if scope.SubCategoryID == nil {
			return emptyFilterResult(query), nil
		}
		productType, err := s.repo.FindTypeBySlug(ctx, *scope.SubCategoryID, query.TypeSlug)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return emptyFilterResult(query), nil
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve type slug")
		}
		scope.TypeID = &productType.ID
	}

	// Specification facets only compute when the caller pinned both a
	// sub-category and a type.
	var specFacets []SpecificationFacet
	if scope.SubCategoryID != nil && scope.TypeID != nil {
		specFacets, err = s.computeSpecFacets(ctx, scope)
		if err != nil {
			return nil, err
		}
	}

	brandFacets, err := s.repo.BrandFacet(ctx, scope.WithoutBrands())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute brand facet")
	}

	page := query.Page.NormalizeWith(s.cfg.DefaultPageSize, s.cfg.MaxPageSize)
	products, err := s.repo.ListProducts(ctx, scope, query.Sort, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list filtered products")
	}

	minPrice, maxPrice, err := s.repo.PriceRange(ctx, scope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute price range")
	}

	summaries := make([]ProductSummary, 0, len(products))
	for _, product := range products {
		summaries = append(summaries, summarizeProduct(product))
	}

	return &FilterResult{
		Products:       summaries,
		Brands:         mergeBrandBackfill(brandFacets, query.Brands),
		Specifications: mergeSpecBackfill(specFacets, query.Specs),
		MinPrice:       minPrice,
		MaxPrice:       maxPrice,
	}, nil
}

// computeSpecFacets discovers the facet dimensions over the base product
// family, then counts each dimension over the scope with that dimension's
// own filter excluded and every other active filter applied.
func (s *service) computeSpecFacets(ctx context.Context, scope Scope) ([]SpecificationFacet, error) {
	familyScope := Scope{
		CategoryID:    scope.CategoryID,
		SubCategoryID: scope.SubCategoryID,
		TypeID:        scope.TypeID,
		ProductIDs:    scope.ProductIDs,
	}
	dimensions, err := s.repo.ListSpecDimensions(ctx, familyScope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list facet dimensions")
	}

	facets := make([]SpecificationFacet, 0, len(dimensions))
	for _, dimension := range dimensions {
		values, err := s.repo.SpecFacetValues(ctx, scope.WithoutSpec(dimension.Slug), dimension.Slug)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute facet values")
		}
		facets = append(facets, SpecificationFacet{
			Name:   dimension.Name,
			Slug:   dimension.Slug,
			Values: values,
		})
	}
	return facets, nil
}

// FilterMobile runs the brand-only filter for an explicit category and
// sub-category pair.
func (s *service) FilterMobile(ctx context.Context, input FilterMobileInput) (*MobileFilterResult, error) {
	started := time.Now()
	result, err := s.filterMobile(ctx, input)
	if err != nil {
		s.metrics.IncFailure(variantMobile)
		return nil, err
	}
	s.metrics.ObserveFilter(variantMobile, time.Since(started), len(result.Products))
	return result, nil
}

func (s *service) filterMobile(ctx context.Context, input FilterMobileInput) (*MobileFilterResult, error) {
	query := input.Query
	if query == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "filter query is required")
	}
	if input.CategoryID == uuid.Nil || input.SubCategoryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "categoryId and subCategoryId are required")
	}

	subCategory, err := s.repo.FindSubCategoryByID(ctx, input.SubCategoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return emptyMobileResult(query), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve sub-category")
	}
	if subCategory.CategoryID != input.CategoryID {
		return emptyMobileResult(query), nil
	}

	scope := Scope{
		CategoryID:    input.CategoryID,
		SubCategoryID: &subCategory.ID,
		ProductIDs:    query.ProductIDs,
		Brands:        query.Brands,
		MinPrice:      query.MinPrice,
		MaxPrice:      query.MaxPrice,
		Specs:         query.Specs,
	}

	brandFacets, err := s.repo.BrandFacet(ctx, scope.WithoutBrands())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute brand facet")
	}

	page := query.Page.NormalizeWith(s.cfg.DefaultPageSize, s.cfg.MaxPageSize)
	products, err := s.repo.ListProducts(ctx, scope, query.Sort, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list filtered products")
	}

	minPrice, maxPrice, err := s.repo.PriceRange(ctx, scope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute price range")
	}

	summaries := make([]ProductSummary, 0, len(products))
	for _, product := range products {
		summaries = append(summaries, summarizeProduct(product))
	}

	return &MobileFilterResult{
		Products: summaries,
		Brands:   mergeBrandBackfill(brandFacets, query.Brands),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
	}, nil
}

func emptyFilterResult(query *FilterQuery) *FilterResult {
	return &FilterResult{
		Products:       []ProductSummary{},
		Brands:         mergeBrandBackfill(nil, query.Brands),
		Specifications: mergeSpecBackfill(nil, query.Specs),
	}
}

func emptyMobileResult(query *FilterQuery) *MobileFilterResult {
	return &MobileFilterResult{
		Products: []ProductSummary{},
		Brands:   mergeBrandBackfill(nil, query.Brands),
	}
}

// ListCategories returns the full browse tree with brand counts.
func (s *service) ListCategories(ctx context.Context) ([]CategorySummary, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	out := make([]CategorySummary, 0, len(categories))
	for _, category := range categories {
		out = append(out, summarizeCategory(category))
	}
	return out, nil
}

// GetCategoryBySlug returns one category subtree.
func (s *service) GetCategoryBySlug(ctx context.Context, slug string) (*CategorySummary, error) {
	category, err := s.repo.GetCategoryTreeBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
	}
	summary := summarizeCategory(*category)
	return &summary, nil
}

// GetProductBySlug returns the product page shape.
func (s *service) GetProductBySlug(ctx context.Context, slug string) (*ProductDetail, error) {
	product, err := s.repo.FindProductBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	count, avg, err := s.commentStats.ProductRatingSummary(ctx, product.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load rating summary")
	}

	specs := make([]SpecificationEntry, 0, len(product.Specifications))
	for _, spec := range product.Specifications {
		specs = append(specs, SpecificationEntry{Name: spec.Name, Slug: spec.Slug, Value: spec.Value})
	}

	return &ProductDetail{
		ProductSummary: summarizeProduct(*product),
		Specifications: specs,
		CommentCount:   count,
		AverageRating:  avg,
	}, nil
}
