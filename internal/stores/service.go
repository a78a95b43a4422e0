package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/angelmondragon/partshop-backend/pkg/db"
	"github.com/angelmondragon/partshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/partshop-backend/pkg/errors"
	"github.com/angelmondragon/partshop-backend/pkg/pagination"
	"gorm.io/gorm"
)

const (
	minNameLength    = 2
	minAddressLength = 10
	minPhoneLength   = 10
)

type storeRepository interface {
	Create(ctx context.Context, store *models.Store) error
	FindByID(ctx context.Context, id uint) (*models.Store, error)
	List(ctx context.Context, params pagination.Params, cursor *pagination.Cursor) ([]models.Store, error)
	Update(ctx context.Context, store *models.Store) error
	CountParts(ctx context.Context, storeID uint) (int64, error)
	Delete(ctx context.Context, id uint) (int64, error)
}

// Service exposes store operations.
type Service interface {
	Create(ctx context.Context, input CreateStoreInput) (*StoreDTO, error)
	GetByID(ctx context.Context, id uint) (*StoreDTO, error)
	List(ctx context.Context, params pagination.Params) (*StoreList, error)
	Update(ctx context.Context, id uint, input UpdateStoreInput) (*StoreDTO, error)
	Delete(ctx context.Context, id uint) error
}

type service struct {
	repo storeRepository
}

// NewService builds a store service with the provided repository.
func NewService(repo storeRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateStoreInput) (*StoreDTO, error) {
	store := &models.Store{
		Name:    strings.TrimSpace(input.Name),
		Address: strings.TrimSpace(input.Address),
		Phone:   strings.TrimSpace(input.Phone),
	}
	if err := validateStore(store); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, store); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create store")
	}
	return FromModel(store), nil
}

func (s *service) GetByID(ctx context.Context, id uint) (*StoreDTO, error) {
	store, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(store), nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*StoreList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, params, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stores")
	}

	rows, page := pagination.Trim(rows, params.Limit, func(m models.Store) uint { return m.ID })
	out := make([]StoreDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return &StoreList{Stores: out, Page: page}, nil
}

func (s *service) Update(ctx context.Context, id uint, input UpdateStoreInput) (*StoreDTO, error) {
	store, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		store.Name = strings.TrimSpace(*input.Name)
	}
	if input.Address != nil {
		store.Address = strings.TrimSpace(*input.Address)
	}
	if input.Phone != nil {
		store.Phone = strings.TrimSpace(*input.Phone)
	}
	if err := validateStore(store); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, store); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update store")
	}
	return FromModel(store), nil
}

// Delete removes a store that no longer owns parts.
func (s *service) Delete(ctx context.Context, id uint) error {
	count, err := s.repo.CountParts(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count store parts")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "store still has parts").
			WithDetails(map[string]any{"parts": count})
	}

	rows, err := s.repo.Delete(ctx, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return pkgerrors.New(pkgerrors.CodeConflict, "store still has parts")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete store")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uint) (*models.Store, error) {
	store, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return store, nil
}

func validateStore(store *models.Store) error {
	details := map[string]any{}
	if utf8.RuneCountInString(store.Name) < minNameLength {
		details["name"] = fmt.Sprintf("must have at least %d characters", minNameLength)
	}
	if utf8.RuneCountInString(store.Address) < minAddressLength {
		details["address"] = fmt.Sprintf("must have at least %d characters", minAddressLength)
	}
	if utf8.RuneCountInString(store.Phone) < minPhoneLength {
		details["phone"] = fmt.Sprintf("must have at least %d characters", minPhoneLength)
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid store").WithDetails(details)
	}
	return nil
}
