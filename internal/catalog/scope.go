package catalog

import (
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storelinehq/storeline-backend/pkg/enums"
)

// effectivePriceExpr is the discounted price when present, else the base
// price. Every price sort and range predicate goes through it.
const effectivePriceExpr = "COALESCE(products.discount_price_cents, products.price_cents)"

// Scope is the fully resolved set of match conditions for one filter
// request. It is a value type: the per-dimension exclusions return copies,
// so assembling facet scopes never mutates the request scope.
type Scope struct {
	CategoryID    uuid.UUID
	SubCategoryID *uuid.UUID
	TypeID        *uuid.UUID
	ProductIDs    []uuid.UUID
	Brands        []string
	MinPrice      *int
	MaxPrice      *int
	Specs         map[string][]string
}

// WithoutBrands drops the brand filter so the brand facet counts the set
// filtered by everything else.
func (s Scope) WithoutBrands() Scope {
	out := s
	out.Brands = nil
	return out
}

// WithoutSpec drops a single specification filter so that dimension's facet
// counts the set filtered by every other condition.
func (s Scope) WithoutSpec(slug string) Scope {
	out := s
	if len(s.Specs) == 0 {
		return out
	}
	specs := make(map[string][]string, len(s.Specs))
	for key, vals := range s.Specs {
		if key == slug {
			continue
		}
		specs[key] = vals
	}
	out.Specs = specs
	return out
}

// Apply composes the scope onto a products query. Only purchasable rows are
// ever matched.
func (s Scope) Apply(qb *gorm.DB) *gorm.DB {
	qb = qb.Where("products.category_id = ?", s.CategoryID)
	qb = qb.Where("products.purchasable = ?", true)
	if s.SubCategoryID != nil {
		qb = qb.Where("products.sub_category_id = ?", *s.SubCategoryID)
	}
	if s.TypeID != nil {
		qb = qb.Where("products.type_id = ?", *s.TypeID)
	}
	if len(s.ProductIDs) > 0 {
		qb = qb.Where("products.id IN ?", s.ProductIDs)
	}
	if len(s.Brands) > 0 {
		qb = qb.Where("products.brand IN ?", s.Brands)
	}
	if s.MinPrice != nil {
		qb = qb.Where(effectivePriceExpr+" >= ?", *s.MinPrice)
	}
	if s.MaxPrice != nil {
		qb = qb.Where(effectivePriceExpr+" <= ?", *s.MaxPrice)
	}
	for _, slug := range specSlugsOf(s.Specs) {
		qb = qb.Where(
			"EXISTS (SELECT 1 FROM product_specifications ps WHERE ps.product_id = products.id AND ps.slug = ? AND ps.value IN ?)",
			slug, s.Specs[slug],
		)
	}
	return qb
}

// ApplySort orders the query per the requested sort mode. Ties break on id
// so pagination slices stay deterministic.
func ApplySort(qb *gorm.DB, sortType enums.SortType) *gorm.DB {
	switch sortType {
	case enums.SortTypeBestSeller:
		return qb.Order("products.sold_count DESC").Order("products.id ASC")
	case enums.SortTypeNewest:
		return qb.Order("products.created_at DESC").Order("products.id DESC")
	case enums.SortTypeMinPrice:
		return qb.Order(effectivePriceExpr + " ASC").Order("products.id ASC")
	case enums.SortTypeMaxPrice:
		return qb.Order(effectivePriceExpr + " DESC").Order("products.id ASC")
	default:
		return qb.Order("products.created_at ASC").Order("products.id ASC")
	}
}

func specSlugsOf(specs map[string][]string) []string {
	if len(specs) == 0 {
		return nil
	}
	slugs := make([]string, 0, len(specs))
	for slug := range specs {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}
