package auth

import (
	"time"

	"github.com/angelmondragon/partshop-backend/internal/users"
	"github.com/shopspring/decimal"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Message     string         `json:"message"`
	AccessToken string         `json:"access_token"`
	ExpiresAt   time.Time      `json:"expires_at"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	User        *users.UserDTO `json:"user"`
}

// RegisterRequest contains the payload required to open an account.
type RegisterRequest struct {
	Name     string           `json:"name" validate:"required,min=3"`
	Email    string           `json:"email" validate:"required,email"`
	Password string           `json:"password" validate:"required"`
	Balance  *decimal.Decimal `json:"balance,omitempty"`
}

// ChangePasswordRequest carries the current credential and its replacement.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// PasswordChangedDTO confirms whose password changed.
type PasswordChangedDTO struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}
