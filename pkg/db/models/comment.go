package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is a user review with an optional star rating. Only approved
// comments are visible on the storefront.
type Comment struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Body      string    `gorm:"column:body;not null"`
	Rating    *int      `gorm:"column:rating"`
	Approved  bool      `gorm:"column:approved;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
