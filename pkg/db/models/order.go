package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a placed purchase. UserID is nil once the owning user is removed.
type Order struct {
	ID        uint            `gorm:"primaryKey"`
	UserID    *uint           `gorm:"column:user_id;index"`
	User      *User           `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:SET NULL"`
	Total     decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`
	Items     []OrderItem     `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
