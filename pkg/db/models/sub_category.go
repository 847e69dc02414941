package models

import (
	"time"

	"github.com/google/uuid"
)

// SubCategory is a second-level catalog node scoped to a category.
type SubCategory struct {
	ID         uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID uuid.UUID     `gorm:"column:category_id;type:uuid;not null;index"`
	Name       string        `gorm:"column:name;not null"`
	Slug       string        `gorm:"column:slug;not null;index:idx_sub_categories_category_slug,unique"`
	Types      []ProductType `gorm:"foreignKey:SubCategoryID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}
