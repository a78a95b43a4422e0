package stores

import (
	"time"

	"github.com/angelmondragon/partshop-backend/pkg/db/models"
	"github.com/angelmondragon/partshop-backend/pkg/pagination"
)

// StoreDTO is the public view of a store.
type StoreDTO struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StoreList is a page of stores.
type StoreList struct {
	Stores []StoreDTO `json:"stores"`
	pagination.Page
}

// CreateStoreInput carries the fields of a new store.
type CreateStoreInput struct {
	Name    string `json:"name" validate:"required,min=2"`
	Address string `json:"address" validate:"required,min=10"`
	Phone   string `json:"phone" validate:"required,min=10"`
}

// UpdateStoreInput captures the allowed store fields for mutation.
type UpdateStoreInput struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=2"`
	Address *string `json:"address,omitempty" validate:"omitempty,min=10"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,min=10"`
}

// FromModel maps a store row to its DTO.
func FromModel(s *models.Store) *StoreDTO {
	if s == nil {
		return nil
	}
	return &StoreDTO{
		ID:        s.ID,
		Name:      s.Name,
		Address:   s.Address,
		Phone:     s.Phone,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
