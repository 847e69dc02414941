package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/storelinehq/storeline-backend/pkg/db/models"
)

// ProductSummary is the storefront product row returned by filter and
// browse endpoints.
type ProductSummary struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	Slug                string    `json:"slug"`
	Brand               string    `json:"brand"`
	PriceCents          int       `json:"price_cents"`
	DiscountPriceCents  *int      `json:"discount_price_cents,omitempty"`
	EffectivePriceCents int       `json:"effective_price_cents"`
	SoldCount           int       `json:"sold_count"`
	Color               *string   `json:"color,omitempty"`
	ColorGroup          *string   `json:"color_group,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

func summarizeProduct(p models.Product) ProductSummary {
	return ProductSummary{
		ID:                  p.ID,
		Name:                p.Name,
		Slug:                p.Slug,
		Brand:               p.Brand,
		PriceCents:          p.PriceCents,
		DiscountPriceCents:  p.DiscountPriceCents,
		EffectivePriceCents: p.EffectivePriceCents(),
		SoldCount:           p.SoldCount,
		Color:               p.Color,
		ColorGroup:          p.ColorGroup,
		CreatedAt:           p.CreatedAt,
	}
}

// BrandFacet is one brand with its match count.
type BrandFacet struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// FacetValue is one specification value with its match count.
type FacetValue struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// SpecificationFacet is one facet dimension with its value counts.
type SpecificationFacet struct {
	Name   string       `json:"name"`
	Slug   string       `json:"slug"`
	Values []FacetValue `json:"values"`
}

// SpecDimension identifies a facet dimension present in a product family.
type SpecDimension struct {
	Slug string
	Name string
}

// FilterResult is the web filter response body.
type FilterResult struct {
	Products       []ProductSummary     `json:"products"`
	Brands         []BrandFacet         `json:"brands"`
	Specifications []SpecificationFacet `json:"specifications"`
	MinPrice       *int                 `json:"minPrice"`
	MaxPrice       *int                 `json:"maxPrice"`
}

// MobileFilterResult is the brand-only mobile filter response body.
type MobileFilterResult struct {
	Products []ProductSummary `json:"products"`
	Brands   []BrandFacet     `json:"brands"`
	MinPrice *int             `json:"minPrice"`
	MaxPrice *int             `json:"maxPrice"`
}

// CategorySummary is the browse-level category shape with its sub-tree.
type CategorySummary struct {
	ID            uuid.UUID            `json:"id"`
	Name          string               `json:"name"`
	Slug          string               `json:"slug"`
	ImageOrdinal  int                  `json:"image_ordinal"`
	SubCategories []SubCategorySummary `json:"sub_categories"`
	Brands        []BrandFacet         `json:"brands"`
}

// SubCategorySummary is the browse-level sub-category shape.
type SubCategorySummary struct {
	ID    uuid.UUID          `json:"id"`
	Name  string             `json:"name"`
	Slug  string             `json:"slug"`
	Types []ProductTypeBrief `json:"types"`
}

// ProductTypeBrief is the minimal type reference exposed to clients.
type ProductTypeBrief struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// ProductDetail is the product page shape: the listing plus specifications
// and an approved-comment rating summary.
type ProductDetail struct {
	ProductSummary
	Specifications []SpecificationEntry `json:"specifications"`
	CommentCount   int                  `json:"comment_count"`
	AverageRating  *float64             `json:"average_rating,omitempty"`
}

// SpecificationEntry is a display name/slug/value row on the product page.
type SpecificationEntry struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Value string `json:"value"`
}
