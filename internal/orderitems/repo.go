package orderitems

import (
	"context"

	"github.com/angelmondragon/partshop-backend/internal/repo"
	"github.com/angelmondragon/partshop-backend/pkg/db/models"
	"github.com/angelmondragon/partshop-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository reads order items.
type Repository interface {
	List(ctx context.Context, filter ListFilter, params pagination.Params, cursor *pagination.Cursor) ([]models.OrderItem, error)
	FindByID(ctx context.Context, id uint, ownerID *uint) (*models.OrderItem, error)
}

// ListFilter narrows item listings. OwnerID restricts items to orders owned
// by that user.
type ListFilter struct {
	OrderID *uint
	OwnerID *uint
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an order item repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, filter ListFilter, params pagination.Params, cursor *pagination.Cursor) ([]models.OrderItem, error) {
	query := r.scoped(ctx, filter.OwnerID).
		Preload("Part").
		Scopes(repo.Keyset("order_items.id", params, cursor))
	if filter.OrderID != nil {
		query = query.Where("order_items.order_id = ?", *filter.OrderID)
	}

	var items []models.OrderItem
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) FindByID(ctx context.Context, id uint, ownerID *uint) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := r.scoped(ctx, ownerID).
		Preload("Part").
		Where("order_items.id = ?", id).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) scoped(ctx context.Context, ownerID *uint) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.OrderItem{})
	if ownerID != nil {
		query = query.
			Joins("JOIN orders ON orders.id = order_items.order_id").
			Where("orders.user_id = ?", *ownerID)
	}
	return query
}
