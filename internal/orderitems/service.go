package orderitems

import (
	"context"
	"errors"
	"fmt"

	pkgAuth "github.com/angelmondragon/partshop-backend/pkg/auth"
	"github.com/angelmondragon/partshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/partshop-backend/pkg/errors"
	"github.com/angelmondragon/partshop-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Service exposes read access to order items. Items only change through
// order placement and cancellation.
type Service interface {
	List(ctx context.Context, actor pkgAuth.Actor, orderID *uint, params pagination.Params) (*ItemList, error)
	Get(ctx context.Context, actor pkgAuth.Actor, id uint) (*ItemDTO, error)
}

type service struct {
	repo Repository
}

// NewService builds an order item service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order item repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, actor pkgAuth.Actor, orderID *uint, params pagination.Params) (*ItemList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, ListFilter{OrderID: orderID, OwnerID: ownerScope(actor)}, params, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order items")
	}
	rows, page := pagination.Trim(rows, params.Limit, func(m models.OrderItem) uint { return m.ID })

	items := make([]ItemDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, fromModel(row))
	}
	return &ItemList{Items: items, Page: page}, nil
}

// Get returns one item. Items on another user's order read as not found.
func (s *service) Get(ctx context.Context, actor pkgAuth.Actor, id uint) (*ItemDTO, error) {
	item, err := s.repo.FindByID(ctx, id, ownerScope(actor))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
	}
	dto := fromModel(*item)
	return &dto, nil
}

func ownerScope(actor pkgAuth.Actor) *uint {
	if actor.IsAdmin() {
		return nil
	}
	userID := actor.UserID
	return &userID
}
