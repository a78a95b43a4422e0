package stores

import (
	"context"
	"fmt"

	"github.com/angelmondragon/partshop-backend/internal/repo"
	"github.com/angelmondragon/partshop-backend/pkg/db/models"
	"github.com/angelmondragon/partshop-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository handles store persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to store operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create persists a new store row.
func (r *Repository) Create(ctx context.Context, store *models.Store) error {
	if store == nil {
		return fmt.Errorf("store is required")
	}
	return r.DB(ctx).Create(store).Error
}

// FindByID loads a store by id.
func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Store, error) {
	var store models.Store
	if err := r.DB(ctx).First(&store, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// List returns stores newest first, one row past the page size.
func (r *Repository) List(ctx context.Context, params pagination.Params, cursor *pagination.Cursor) ([]models.Store, error) {
	var stores []models.Store
	if err := r.DB(ctx).Scopes(repo.Keyset("id", params, cursor)).Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

// Update saves the provided store.
func (r *Repository) Update(ctx context.Context, store *models.Store) error {
	if store == nil {
		return fmt.Errorf("store is required")
	}
	return r.DB(ctx).Save(store).Error
}

// CountParts returns how many parts the store still owns.
func (r *Repository) CountParts(ctx context.Context, storeID uint) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Part{}).Where("store_id = ?", storeID).Count(&count).Error
	return count, err
}

// Delete removes the store and reports how many rows were deleted.
func (r *Repository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.DB(ctx).Delete(&models.Store{}, "id = ?", id)
	return res.RowsAffected, res.Error
}
