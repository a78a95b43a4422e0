package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/partshop-backend/pkg/enums"
)

// User is a customer (or administrator) account holding a spendable balance.
type User struct {
	ID               uint            `gorm:"primaryKey"`
	Name             string          `gorm:"column:name;not null"`
	Email            string          `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash     *string         `gorm:"column:password_hash"`
	Balance          decimal.Decimal `gorm:"column:balance;type:numeric(12,2);not null;default:0"`
	FailedLoginCount int             `gorm:"column:failed_login_count;not null;default:0"`
	Blocked          bool            `gorm:"column:blocked;not null;default:false"`
	LastLoginAt      *time.Time      `gorm:"column:last_login_at"`
	Role             enums.UserRole  `gorm:"column:role;type:text;not null;default:customer"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// HasCredential reports whether a password hash has been set.
func (u *User) HasCredential() bool {
	return u != nil && u.PasswordHash != nil && *u.PasswordHash != ""
}
