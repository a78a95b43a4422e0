package users

import (
	"time"

	"github.com/angelmondragon/partshop-backend/pkg/db/models"
	"github.com/angelmondragon/partshop-backend/pkg/enums"
	"github.com/angelmondragon/partshop-backend/pkg/pagination"
	"github.com/shopspring/decimal"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID               uint            `json:"id"`
	Name             string          `json:"name"`
	Email            string          `json:"email"`
	Balance          decimal.Decimal `json:"balance"`
	Role             enums.UserRole  `json:"role"`
	Blocked          bool            `json:"blocked"`
	FailedLoginCount int             `json:"failed_login_count"`
	LastLoginAt      *time.Time      `json:"last_login_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// UserList is a page of users.
type UserList struct {
	Users []UserDTO `json:"users"`
	pagination.Page
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Name         string
	Email        string
	PasswordHash string
	Balance      decimal.Decimal
	Role         enums.UserRole
}

// UpdateProfileRequest carries the self-editable profile fields.
type UpdateProfileRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=3"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		Balance:          u.Balance,
		Role:             u.Role,
		Blocked:          u.Blocked,
		FailedLoginCount: u.FailedLoginCount,
		LastLoginAt:      u.LastLoginAt,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if !role.IsValid() {
		role = enums.UserRoleCustomer
	}

	var hash *string
	if c.PasswordHash != "" {
		value := c.PasswordHash
		hash = &value
	}

	return &models.User{
		Name:         c.Name,
		Email:        c.Email,
		PasswordHash: hash,
		Balance:      c.Balance,
		Role:         role,
	}
}
