package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the canonical catalog listing.
type Product struct {
	ID                 uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID         uuid.UUID              `gorm:"column:category_id;type:uuid;not null;index"`
	SubCategoryID      uuid.UUID              `gorm:"column:sub_category_id;type:uuid;not null;index"`
	TypeID             *uuid.UUID             `gorm:"column:type_id;type:uuid;index"`
	Brand              string                 `gorm:"column:brand;not null"`
	Name               string                 `gorm:"column:name;not null"`
	Slug               string                 `gorm:"column:slug;not null;uniqueIndex"`
	PriceCents         int                    `gorm:"column:price_cents;not null"`
	DiscountPriceCents *int                   `gorm:"column:discount_price_cents"`
	Purchasable        bool                   `gorm:"column:purchasable;not null;default:true"`
	SoldCount          int                    `gorm:"column:sold_count;not null;default:0"`
	Color              *string                `gorm:"column:color"`
	ColorGroup         *string                `gorm:"column:color_group"`
	Specifications     []ProductSpecification `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectivePriceCents is the discounted price when present, else the base
// price. All price sorting and range filtering uses this value.
func (p Product) EffectivePriceCents() int {
	if p.DiscountPriceCents != nil {
		return *p.DiscountPriceCents
	}
	return p.PriceCents
}
