package parts

import (
	"context"
	"fmt"

	"github.com/angelmondragon/partshop-backend/internal/repo"
	"github.com/angelmondragon/partshop-backend/pkg/db/models"
	"github.com/angelmondragon/partshop-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository handles part persistence and stock movements.
type Repository struct {
	base repo.Base
}

// NewRepository binds a GORM DB to part operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{base: r.base.Bind(tx)}
}

// Create persists a new part row.
func (r *Repository) Create(ctx context.Context, part *models.Part) error {
	if part == nil {
		return fmt.Errorf("part is required")
	}
	return r.base.DB(ctx).Create(part).Error
}

// FindByID loads a part by id.
func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Part, error) {
	var part models.Part
	if err := r.base.DB(ctx).First(&part, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &part, nil
}

// FindByIDForUpdate loads a part by id holding a row lock.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id uint) (*models.Part, error) {
	var part models.Part
	if err := r.base.Locked(ctx).First(&part, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &part, nil
}

// FindByIDsForUpdate locks the requested parts in ascending id order so
// concurrent orders acquire row locks in the same sequence.
func (r *Repository) FindByIDsForUpdate(ctx context.Context, ids []uint) ([]models.Part, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var parts []models.Part
	if err := r.base.Locked(ctx).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&parts).Error; err != nil {
		return nil, err
	}
	return parts, nil
}

// ListFilter narrows part listings.
type ListFilter struct {
	StoreID *uint
}

// List returns parts newest first, one row past the page size.
func (r *Repository) List(ctx context.Context, filter ListFilter, params pagination.Params, cursor *pagination.Cursor) ([]models.Part, error) {
	query := r.base.DB(ctx).Scopes(repo.Keyset("id", params, cursor))
	if filter.StoreID != nil {
		query = query.Where("store_id = ?", *filter.StoreID)
	}
	var parts []models.Part
	if err := query.Find(&parts).Error; err != nil {
		return nil, err
	}
	return parts, nil
}

// UpdateFields writes the provided column changes.
func (r *Repository) UpdateFields(ctx context.Context, id uint, changes map[string]any) error {
	if len(changes) == 0 {
		return nil
	}
	return r.base.DB(ctx).
		Model(&models.Part{}).
		Where("id = ?", id).
		Updates(changes).Error
}

// Delete removes the part. Order items that referenced it keep a null part.
func (r *Repository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.base.DB(ctx).Delete(&models.Part{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

// DecrementStock removes qty units when at least qty are on hand. Zero rows
// affected means the part is gone or short.
func (r *Repository) DecrementStock(ctx context.Context, id uint, qty int) (int64, error) {
	res := r.base.DB(ctx).Exec(
		`UPDATE parts SET quantity = quantity - ? WHERE id = ? AND quantity >= ?`,
		qty, id, qty,
	)
	return res.RowsAffected, res.Error
}

// IncrementStock returns qty units to the part.
func (r *Repository) IncrementStock(ctx context.Context, id uint, qty int) (int64, error) {
	res := r.base.DB(ctx).Exec(
		`UPDATE parts SET quantity = quantity + ? WHERE id = ?`,
		qty, id,
	)
	return res.RowsAffected, res.Error
}
