package auditlog

import (
	"context"
	"fmt"

	"github.com/angelmondragon/partshop-backend/pkg/db/models"
	"github.com/angelmondragon/partshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/partshop-backend/pkg/errors"
	"github.com/angelmondragon/partshop-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Recorder appends audit entries. A nil tx writes outside any transaction;
// otherwise the entry commits or rolls back with the caller's work.
type Recorder interface {
	Record(ctx context.Context, tx *gorm.DB, userID *uint, action enums.AuditAction) error
}

// Service defines the audit log operations.
type Service interface {
	Recorder
	List(ctx context.Context, filter ListFilter, params pagination.Params) (*EntryList, error)
}

type service struct {
	repo Repository
}

// NewService wires an audit log service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit log repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Record(ctx context.Context, tx *gorm.DB, userID *uint, action enums.AuditAction) error {
	if !action.IsValid() {
		return fmt.Errorf("invalid audit action %q", action)
	}

	entry := &models.AuditLog{
		UserID: userID,
		Action: action,
	}
	if err := s.repo.WithTx(tx).Create(ctx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record audit log")
	}
	return nil
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) (*EntryList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, filter, params, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit logs")
	}

	rows, page := pagination.Trim(rows, params.Limit, func(m models.AuditLog) uint { return m.ID })
	entries := make([]EntryDTO, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, FromModel(row))
	}
	return &EntryList{Entries: entries, Page: page}, nil
}
