package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/storelinehq/storeline-backend/pkg/db/models"
	"github.com/storelinehq/storeline-backend/pkg/enums"
)

// UserDTO is the user shape returned to clients. The password hash never
// leaves the service layer.
type UserDTO struct {
	ID            uuid.UUID      `json:"id"`
	Phone         string         `json:"phone"`
	Email         *string        `json:"email,omitempty"`
	FirstName     string         `json:"first_name"`
	LastName      string         `json:"last_name"`
	Role          enums.UserRole `json:"role"`
	PhoneVerified bool           `json:"phone_verified"`
	CreatedAt     time.Time      `json:"created_at"`
}

// FromModel maps the persistence model to the transport shape.
func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:            u.ID,
		Phone:         u.Phone,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Role:          u.Role,
		PhoneVerified: u.PhoneVerified,
		CreatedAt:     u.CreatedAt,
	}
}

// CreateUserDTO carries the fields needed to insert a user row.
type CreateUserDTO struct {
	Phone        string
	Email        *string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         enums.UserRole
}

// ToModel builds the persistence model. New users start with an unverified
// phone; login is gated until the SMS activation completes.
func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if role == "" {
		role = enums.UserRoleCustomer
	}
	return &models.User{
		ID:           uuid.New(),
		Phone:        c.Phone,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Role:         role,
	}
}
