package models

import (
	"time"

	"github.com/google/uuid"
)

// TicketMessage is one message in a ticket thread. Staff replies flip the
// ticket status to answered.
type TicketMessage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TicketID  uuid.UUID `gorm:"column:ticket_id;type:uuid;not null;index"`
	AuthorID  uuid.UUID `gorm:"column:author_id;type:uuid;not null"`
	Body      string    `gorm:"column:body;not null"`
	Staff     bool      `gorm:"column:staff;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
