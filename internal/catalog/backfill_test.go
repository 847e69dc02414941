package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeBrandBackfill(t *testing.T) {
	computed := []BrandFacet{{Name: "Nike", Count: 3}}
	requested := []string{"Nike", "Adidas"}

	merged := mergeBrandBackfill(computed, requested)

	assert.Equal(t, []BrandFacet{
		{Name: "Nike", Count: 3},
		{Name: "Adidas", Count: 0},
	}, merged)
	// inputs untouched
	assert.Equal(t, []BrandFacet{{Name: "Nike", Count: 3}}, computed)
	assert.Equal(t, []string{"Nike", "Adidas"}, requested)
}

func TestMergeSpecBackfillAddsMissingValuesAndDimensions(t *testing.T) {
	computed := []SpecificationFacet{
		{Name: "Size", Slug: "size", Values: []FacetValue{{Value: "42", Count: 2}}},
	}
	requested := map[string][]string{
		"size":     {"42", "44"},
		"material": {"mesh"},
	}

	merged := mergeSpecBackfill(computed, requested)

	assert.Equal(t, []SpecificationFacet{
		{Name: "Size", Slug: "size", Values: []FacetValue{
			{Value: "42", Count: 2},
			{Value: "44", Count: 0},
		}},
		{Name: "material", Slug: "material", Values: []FacetValue{
			{Value: "mesh", Count: 0},
		}},
	}, merged)

	// the computed facet's value slice is not shared with the output
	assert.Len(t, computed[0].Values, 1)
}

func TestMergeBackfillEmptyInputs(t *testing.T) {
	assert.Empty(t, mergeBrandBackfill(nil, nil))
	assert.Empty(t, mergeSpecBackfill(nil, nil))

	merged := mergeBrandBackfill(nil, []string{"Puma"})
	assert.Equal(t, []BrandFacet{{Name: "Puma", Count: 0}}, merged)
}
