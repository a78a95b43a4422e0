package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem is one line of an order. PartID is nil once the part is removed.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey"`
	OrderID   uint            `gorm:"column:order_id;not null;index"`
	PartID    *uint           `gorm:"column:part_id;index"`
	Part      *Part           `gorm:"foreignKey:PartID;references:ID;constraint:OnDelete:SET NULL"`
	Quantity  int             `gorm:"column:quantity;not null"`
	Subtotal  decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
