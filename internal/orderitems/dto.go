package orderitems

import (
	"time"

	"github.com/angelmondragon/partshop-backend/pkg/db/models"
	"github.com/angelmondragon/partshop-backend/pkg/pagination"
	"github.com/shopspring/decimal"
)

// ItemDTO is an order item with the part it references, when it still exists.
type ItemDTO struct {
	ID        uint            `json:"id"`
	OrderID   uint            `json:"order_id"`
	PartID    *uint           `json:"part_id"`
	Part      *PartSummary    `json:"part,omitempty"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	CreatedAt time.Time       `json:"created_at"`
}

// PartSummary describes the referenced part.
type PartSummary struct {
	Name  string          `json:"name"`
	Type  string          `json:"type"`
	Price decimal.Decimal `json:"price"`
}

// ItemList is a page of order items.
type ItemList struct {
	Items []ItemDTO `json:"items"`
	pagination.Page
}

func fromModel(m models.OrderItem) ItemDTO {
	dto := ItemDTO{
		ID:        m.ID,
		OrderID:   m.OrderID,
		PartID:    m.PartID,
		Quantity:  m.Quantity,
		Subtotal:  m.Subtotal,
		CreatedAt: m.CreatedAt,
	}
	if m.Part != nil {
		dto.Part = &PartSummary{Name: m.Part.Name, Type: m.Part.Type, Price: m.Part.Price}
	}
	return dto
}
