package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductType narrows a sub-category into a facet-bearing product family.
// Specification facets only compute when the caller pins both a sub-category
// and a type, so the distinct spec slugs stay coherent.
type ProductType struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SubCategoryID uuid.UUID `gorm:"column:sub_category_id;type:uuid;not null;index"`
	Name          string    `gorm:"column:name;not null"`
	Slug          string    `gorm:"column:slug;not null;index:idx_product_types_sub_category_slug,unique"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}
