package models

import (
	"github.com/google/uuid"
)

// ProductSpecification is a free-form name/slug/value attribute attached to a
// product. The distinct slugs across a sub-category's products define the
// available facet dimensions.
type ProductSpecification struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	Name      string    `gorm:"column:name;not null"`
	Slug      string    `gorm:"column:slug;not null;index"`
	Value     string    `gorm:"column:value;not null"`
}
