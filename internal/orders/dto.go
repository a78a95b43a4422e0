package orders

import (
	"time"

	"github.com/angelmondragon/partshop-backend/pkg/db/models"
	"github.com/angelmondragon/partshop-backend/pkg/pagination"
	"github.com/shopspring/decimal"
)

// LineInput is one requested order line.
type LineInput struct {
	PartID   uint `json:"part_id" validate:"required"`
	Quantity int  `json:"quantity" validate:"required,gt=0"`
}

// PlaceOrderRequest is the HTTP payload for placing an order. UserID is only
// honored for admins; everyone else orders for themselves.
type PlaceOrderRequest struct {
	UserID *uint       `json:"user_id,omitempty"`
	Items  []LineInput `json:"items" validate:"required,min=1,dive"`
}

// PlaceOrderInput carries a validated order placement.
type PlaceOrderInput struct {
	UserID uint
	Items  []LineInput
}

// OrderItemDTO exposes a persisted order line.
type OrderItemDTO struct {
	ID        uint            `json:"id"`
	OrderID   uint            `json:"order_id"`
	PartID    *uint           `json:"part_id"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	CreatedAt time.Time       `json:"created_at"`
}

// OrderDTO exposes an order with its lines.
type OrderDTO struct {
	ID        uint            `json:"id"`
	UserID    *uint           `json:"user_id"`
	Total     decimal.Decimal `json:"total"`
	Items     []OrderItemDTO  `json:"items"`
	CreatedAt time.Time       `json:"created_at"`
}

// OrderList wraps paginated orders plus the next page cursor.
type OrderList struct {
	Orders []OrderDTO `json:"orders"`
	pagination.Page
}

// FromModel maps an order and its loaded items to the DTO.
func FromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, ItemFromModel(item))
	}
	return &OrderDTO{
		ID:        o.ID,
		UserID:    o.UserID,
		Total:     o.Total,
		Items:     items,
		CreatedAt: o.CreatedAt,
	}
}

// ItemFromModel maps a single order item.
func ItemFromModel(item models.OrderItem) OrderItemDTO {
	return OrderItemDTO{
		ID:        item.ID,
		OrderID:   item.OrderID,
		PartID:    item.PartID,
		Quantity:  item.Quantity,
		Subtotal:  item.Subtotal,
		CreatedAt: item.CreatedAt,
	}
}
