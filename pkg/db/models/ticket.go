package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/storelinehq/storeline-backend/pkg/enums"
)

// Ticket is a user support request.
type Ticket struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index"`
	Subject   string             `gorm:"column:subject;not null"`
	Status    enums.TicketStatus `gorm:"column:status;not null;default:open"`
	Messages  []TicketMessage    `gorm:"foreignKey:TicketID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
