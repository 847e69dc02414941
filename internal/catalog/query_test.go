package catalog

import (
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storelinehq/storeline-backend/pkg/enums"
	pkgerrors "github.com/storelinehq/storeline-backend/pkg/errors"
)

func TestParseFilterQuery(t *testing.T) {
	id := uuid.New()
	values := url.Values{
		"brands":     {"Nike", "Adidas", " "},
		"minPrice":   {"4000"},
		"maxPrice":   {"9000"},
		"sortType":   {"3"},
		"start":      {"24"},
		"quantity":   {"12"},
		"productIds": {id.String()},
		"type":       {"running-shoes"},
		"size":       {"42", "43"},
		"material":   {"mesh"},
	}

	query, err := ParseFilterQuery(values)
	require.NoError(t, err)

	assert.Equal(t, []string{"Nike", "Adidas"}, query.Brands)
	require.NotNil(t, query.MinPrice)
	require.NotNil(t, query.MaxPrice)
	assert.Equal(t, 4000, *query.MinPrice)
	assert.Equal(t, 9000, *query.MaxPrice)
	assert.Equal(t, enums.SortTypeMinPrice, query.Sort)
	assert.Equal(t, 24, query.Page.Start)
	assert.Equal(t, 12, query.Page.Quantity)
	assert.Equal(t, []uuid.UUID{id}, query.ProductIDs)
	assert.Equal(t, "running-shoes", query.TypeSlug)
	assert.Equal(t, map[string][]string{
		"size":     {"42", "43"},
		"material": {"mesh"},
	}, query.Specs)
	assert.Equal(t, []string{"material", "size"}, query.SpecSlugs())
}

func TestParseFilterQueryDefaults(t *testing.T) {
	query, err := ParseFilterQuery(url.Values{})
	require.NoError(t, err)

	assert.Empty(t, query.Brands)
	assert.Nil(t, query.MinPrice)
	assert.Nil(t, query.MaxPrice)
	assert.Equal(t, enums.SortTypeClassic, query.Sort)
	assert.Empty(t, query.Specs)
	assert.False(t, query.HasPriceRange())
}

func TestParseFilterQueryPriceBoundPairing(t *testing.T) {
	tests := []struct {
		name   string
		values url.Values
	}{
		{name: "min only", values: url.Values{"minPrice": {"40"}}},
		{name: "max only", values: url.Values{"maxPrice": {"90"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseFilterQuery(tc.values)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
}

func TestParseFilterQueryRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		values url.Values
	}{
		{name: "non-numeric price", values: url.Values{"minPrice": {"cheap"}, "maxPrice": {"90"}}},
		{name: "bad sort code", values: url.Values{"sortType": {"9"}}},
		{name: "non-numeric sort", values: url.Values{"sortType": {"newest"}}},
		{name: "bad product id", values: url.Values{"productIds": {"not-a-uuid"}}},
		{name: "non-numeric start", values: url.Values{"start": {"abc"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseFilterQuery(tc.values)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
}

func TestParseFilterQueryIgnoresEmptySpecValues(t *testing.T) {
	query, err := ParseFilterQuery(url.Values{"size": {"  ", ""}})
	require.NoError(t, err)
	assert.Empty(t, query.Specs)
}
