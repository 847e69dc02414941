package enums

import (
	"fmt"
	"strconv"
)

// SortType selects the catalog filter ordering. The wire format is the
// numeric code the storefront clients have always sent.
type SortType int

const (
	SortTypeClassic    SortType = 0
	SortTypeBestSeller SortType = 1
	SortTypeNewest     SortType = 2
	SortTypeMinPrice   SortType = 3
	SortTypeMaxPrice   SortType = 4
)

var validSortTypes = []SortType{
	SortTypeClassic,
	SortTypeBestSeller,
	SortTypeNewest,
	SortTypeMinPrice,
	SortTypeMaxPrice,
}

// String implements fmt.Stringer.
func (s SortType) String() string {
	switch s {
	case SortTypeClassic:
		return "classic"
	case SortTypeBestSeller:
		return "best-seller"
	case SortTypeNewest:
		return "newest"
	case SortTypeMinPrice:
		return "min-price"
	case SortTypeMaxPrice:
		return "max-price"
	}
	return strconv.Itoa(int(s))
}

// IsValid reports whether the value is a known SortType.
func (s SortType) IsValid() bool {
	for _, candidate := range validSortTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSortType converts the numeric wire value into a SortType.
func ParseSortType(value string) (SortType, error) {
	code, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid sort type %q", value)
	}
	parsed := SortType(code)
	if !parsed.IsValid() {
		return 0, fmt.Errorf("invalid sort type %q", value)
	}
	return parsed, nil
}
