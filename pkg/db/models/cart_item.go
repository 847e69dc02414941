package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is a single product line inside a cart.
type CartItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID         uuid.UUID `gorm:"column:cart_id;type:uuid;not null;index:idx_cart_items_cart_product,unique"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null;index:idx_cart_items_cart_product,unique"`
	Quantity       int       `gorm:"column:quantity;not null"`
	UnitPriceCents int       `gorm:"column:unit_price_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
