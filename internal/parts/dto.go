package parts

import (
	"time"

	"github.com/angelmondragon/partshop-backend/pkg/db/models"
	"github.com/angelmondragon/partshop-backend/pkg/pagination"
	"github.com/shopspring/decimal"
)

// PartDTO is the public view of a part.
type PartDTO struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	StoreID   uint            `json:"store_id"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// PartList is a page of parts.
type PartList struct {
	Parts []PartDTO `json:"parts"`
	pagination.Page
}

// CreatePartInput carries the fields of a new part.
type CreatePartInput struct {
	Name     string          `json:"name" validate:"required,min=2"`
	Type     string          `json:"type" validate:"required,min=2"`
	Quantity int             `json:"quantity" validate:"gte=0"`
	Price    decimal.Decimal `json:"price"`
	StoreID  uint            `json:"store_id" validate:"required"`
}

// UpdatePartInput captures the allowed part fields for mutation.
type UpdatePartInput struct {
	Name     *string          `json:"name,omitempty" validate:"omitempty,min=2"`
	Type     *string          `json:"type,omitempty" validate:"omitempty,min=2"`
	Quantity *int             `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	StoreID  *uint            `json:"store_id,omitempty"`
}

// FromModel maps a part row to its DTO.
func FromModel(p *models.Part) *PartDTO {
	if p == nil {
		return nil
	}
	return &PartDTO{
		ID:        p.ID,
		Name:      p.Name,
		Type:      p.Type,
		Quantity:  p.Quantity,
		Price:     p.Price,
		StoreID:   p.StoreID,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
