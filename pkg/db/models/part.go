package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Part is a stocked product sold by a store.
type Part struct {
	ID        uint            `gorm:"primaryKey"`
	Name      string          `gorm:"column:name;not null"`
	Type      string          `gorm:"column:type;not null"`
	Quantity  int             `gorm:"column:quantity;not null;default:0"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	StoreID   uint            `gorm:"column:store_id;not null;index"`
	Store     *Store          `gorm:"foreignKey:StoreID;references:ID"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
