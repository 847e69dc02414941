package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/storelinehq/storeline-backend/pkg/enums"
)

// User is a platform principal: customer, manager, or admin.
type User struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Phone         string         `gorm:"column:phone;not null;uniqueIndex"`
	Email         *string        `gorm:"column:email"`
	PasswordHash  string         `gorm:"column:password_hash;not null"`
	FirstName     string         `gorm:"column:first_name;not null"`
	LastName      string         `gorm:"column:last_name;not null"`
	Role          enums.UserRole `gorm:"column:role;not null;default:customer"`
	PhoneVerified bool           `gorm:"column:phone_verified;not null;default:false"`
	IsActive      bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
