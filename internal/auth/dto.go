package auth

import (
	"github.com/storelinehq/storeline-backend/internal/users"
)

// RegisterRequest creates an account pending phone activation.
type RegisterRequest struct {
	Phone     string  `json:"phone" validate:"required,min=10,max=15"`
	Password  string  `json:"password" validate:"required,min=8"`
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	IP        string  `json:"-"`
}

// ActivateRequest verifies the SMS code sent at registration.
type ActivateRequest struct {
	Phone string `json:"phone" validate:"required"`
	Code  string `json:"code" validate:"required"`
}

// LoginRequest authenticates by phone and password.
type LoginRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
	IP       string `json:"-"`
}

// RefreshRequest rotates a session given the expired access token and the
// refresh token issued with it.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RegisterResponse acknowledges the pending activation.
type RegisterResponse struct {
	User *users.UserDTO `json:"user"`
}

// TokenPair is the issued credential set.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LoginResponse carries the tokens plus the authenticated user.
type LoginResponse struct {
	TokenPair
	User *users.UserDTO `json:"user"`
}
