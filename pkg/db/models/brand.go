package models

import (
	"time"

	"github.com/google/uuid"
)

// Brand is a denormalized per-category (and optionally per-sub-category)
// brand row carrying a running product count. Counts are maintained
// transactionally when products are created and deleted.
type Brand struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID    uuid.UUID  `gorm:"column:category_id;type:uuid;not null;index:idx_brands_scope,unique"`
	SubCategoryID *uuid.UUID `gorm:"column:sub_category_id;type:uuid;index:idx_brands_scope,unique"`
	Name          string     `gorm:"column:name;not null;index:idx_brands_scope,unique"`
	ProductsCount int        `gorm:"column:products_count;not null;default:0"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
