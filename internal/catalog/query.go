package catalog

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/storelinehq/storeline-backend/pkg/errors"
	"github.com/storelinehq/storeline-backend/pkg/enums"
	"github.com/storelinehq/storeline-backend/pkg/pagination"
)

// Reserved query keys. Every other key is treated as a specification-slug
// filter with one or more requested values.
var reservedQueryKeys = map[string]struct{}{
	"brands":     {},
	"minPrice":   {},
	"maxPrice":   {},
	"sortType":   {},
	"start":      {},
	"quantity":   {},
	"productIds": {},
	"type":       {},
}

// FilterQuery is the parsed, immutable filter input. Facet computation and
// back-fill read from it but never write to it.
type FilterQuery struct {
	Brands     []string
	MinPrice   *int
	MaxPrice   *int
	Sort       enums.SortType
	Page       pagination.Page
	ProductIDs []uuid.UUID
	TypeSlug   string
	Specs      map[string][]string
}

// HasPriceRange reports whether both price bounds are set.
func (q FilterQuery) HasPriceRange() bool {
	return q.MinPrice != nil && q.MaxPrice != nil
}

// SpecSlugs returns the requested specification slugs in stable order.
func (q FilterQuery) SpecSlugs() []string {
	slugs := make([]string, 0, len(q.Specs))
	for slug := range q.Specs {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

// ParseFilterQuery decodes the flat query string into a FilterQuery. All
// validation failures surface before any store query runs.
func ParseFilterQuery(values url.Values) (*FilterQuery, error) {
	query := &FilterQuery{
		Sort:  enums.SortTypeClassic,
		Specs: map[string][]string{},
	}

	query.Brands = cleanValues(values["brands"])

	minPrice, err := parseOptionalInt(values.Get("minPrice"), "minPrice")
	if err != nil {
		return nil, err
	}
	maxPrice, err := parseOptionalInt(values.Get("maxPrice"), "maxPrice")
	if err != nil {
		return nil, err
	}
	if (minPrice == nil) != (maxPrice == nil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minPrice and maxPrice must both be present or both absent")
	}
	query.MinPrice = minPrice
	query.MaxPrice = maxPrice

	if raw := strings.TrimSpace(values.Get("sortType")); raw != "" {
		sortType, err := enums.ParseSortType(raw)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		query.Sort = sortType
	}

	start, err := parseOptionalInt(values.Get("start"), "start")
	if err != nil {
		return nil, err
	}
	quantity, err := parseOptionalInt(values.Get("quantity"), "quantity")
	if err != nil {
		return nil, err
	}
	page := pagination.Page{}
	if start != nil {
		page.Start = *start
	}
	if quantity != nil {
		page.Quantity = *quantity
	}
	query.Page = page

	for _, raw := range cleanValues(values["productIds"]) {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid product id %q", raw))
		}
		query.ProductIDs = append(query.ProductIDs, id)
	}

	query.TypeSlug = strings.TrimSpace(values.Get("type"))

	for key, raw := range values {
		if _, reserved := reservedQueryKeys[key]; reserved {
			continue
		}
		if vals := cleanValues(raw); len(vals) > 0 {
			query.Specs[key] = vals
		}
	}

	return query, nil
}

func parseOptionalInt(raw, name string) (*int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must be an integer", name))
	}
	return &parsed, nil
}

func cleanValues(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
