package orders

import (
	"context"

	"github.com/angelmondragon/partshop-backend/pkg/db/models"
	"github.com/angelmondragon/partshop-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the orders and order_items tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uint) (*models.Order, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*models.Order, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params, cursor *pagination.Cursor) ([]models.Order, error)
	Delete(ctx context.Context, id uint) (int64, error)
}

// ListFilter narrows order listings. A nil UserID lists every order.
type ListFilter struct {
	UserID *uint
}
