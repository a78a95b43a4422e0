package auditlog

import (
	"context"

	"github.com/angelmondragon/partshop-backend/internal/repo"
	"github.com/angelmondragon/partshop-backend/pkg/db/models"
	"github.com/angelmondragon/partshop-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository manages persistence for audit log rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, filter ListFilter, params pagination.Params, cursor *pagination.Cursor) ([]models.AuditLog, error)
}

// ListFilter narrows audit log listings.
type ListFilter struct {
	UserID *uint
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an audit log repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) List(ctx context.Context, filter ListFilter, params pagination.Params, cursor *pagination.Cursor) ([]models.AuditLog, error) {
	query := r.db.WithContext(ctx).
		Preload("User").
		Scopes(repo.Keyset("id", params, cursor))
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	var entries []models.AuditLog
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
