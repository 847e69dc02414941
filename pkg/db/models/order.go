package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/storelinehq/storeline-backend/pkg/enums"
)

// Order captures a checkout snapshot and its lifecycle state.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Status        enums.OrderStatus   `gorm:"column:status;not null"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;not null"`
	PaymentRef    *string             `gorm:"column:payment_ref"`
	SubtotalCents int                 `gorm:"column:subtotal_cents;not null"`
	DiscountCents int                 `gorm:"column:discount_cents;not null;default:0"`
	TotalCents    int                 `gorm:"column:total_cents;not null"`
	LineItems     []OrderLineItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	PaidAt        *time.Time          `gorm:"column:paid_at"`
	CanceledAt    *time.Time          `gorm:"column:canceled_at"`
	ConfirmedAt   *time.Time          `gorm:"column:confirmed_at"`
	ReturnedAt    *time.Time          `gorm:"column:returned_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
