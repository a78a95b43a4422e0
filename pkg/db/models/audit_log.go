package models

import (
	"time"

	"github.com/angelmondragon/partshop-backend/pkg/enums"
)

// AuditLog is an append-only record of an account event.
type AuditLog struct {
	ID        uint              `gorm:"primaryKey"`
	UserID    *uint             `gorm:"column:user_id;index"`
	User      *User             `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:SET NULL"`
	Action    enums.AuditAction `gorm:"column:action;type:text;not null"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime;index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
