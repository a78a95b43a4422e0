package parts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/angelmondragon/partshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/partshop-backend/pkg/errors"
	"github.com/angelmondragon/partshop-backend/pkg/pagination"
	"gorm.io/gorm"
)

const minLabelLength = 2

type storeLookup interface {
	FindByID(ctx context.Context, id uint) (*models.Store, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes part catalog operations.
type Service interface {
	Create(ctx context.Context, input CreatePartInput) (*PartDTO, error)
	GetByID(ctx context.Context, id uint) (*PartDTO, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) (*PartList, error)
	Update(ctx context.Context, id uint, input UpdatePartInput) (*PartDTO, error)
	Delete(ctx context.Context, id uint) error
}

type service struct {
	repo   *Repository
	stores storeLookup
	tx     txRunner
}

// NewService builds a part service.
func NewService(repo *Repository, stores storeLookup, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("part repository required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store lookup required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, stores: stores, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, input CreatePartInput) (*PartDTO, error) {
	part := &models.Part{
		Name:     strings.TrimSpace(input.Name),
		Type:     strings.TrimSpace(input.Type),
		Quantity: input.Quantity,
		Price:    input.Price.Round(2),
		StoreID:  input.StoreID,
	}
	if err := validatePart(part); err != nil {
		return nil, err
	}
	if err := s.ensureStore(ctx, part.StoreID); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, part); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create part")
	}
	return FromModel(part), nil
}

func (s *service) GetByID(ctx context.Context, id uint) (*PartDTO, error) {
	part, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(part), nil
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) (*PartList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, filter, params, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list parts")
	}

	rows, page := pagination.Trim(rows, params.Limit, func(m models.Part) uint { return m.ID })
	out := make([]PartDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return &PartList{Parts: out, Page: page}, nil
}

// Update locks the row and writes only the fields present in input, so stock
// moved by orders in the meantime is never overwritten.
func (s *service) Update(ctx context.Context, id uint, input UpdatePartInput) (*PartDTO, error) {
	var dto *PartDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		part, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return mapLookupError(err)
		}

		changes := map[string]any{}
		if input.Name != nil {
			part.Name = strings.TrimSpace(*input.Name)
			changes["name"] = part.Name
		}
		if input.Type != nil {
			part.Type = strings.TrimSpace(*input.Type)
			changes["type"] = part.Type
		}
		if input.Quantity != nil {
			part.Quantity = *input.Quantity
			changes["quantity"] = part.Quantity
		}
		if input.Price != nil {
			part.Price = input.Price.Round(2)
			changes["price"] = part.Price
		}
		if err := validatePart(part); err != nil {
			return err
		}
		if input.StoreID != nil && *input.StoreID != part.StoreID {
			if err := s.ensureStore(ctx, *input.StoreID); err != nil {
				return err
			}
			changes["store_id"] = *input.StoreID
		}

		if err := repo.UpdateFields(ctx, id, changes); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update part")
		}
		updated, err := repo.FindByID(ctx, id)
		if err != nil {
			return mapLookupError(err)
		}
		dto = FromModel(updated)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (s *service) Delete(ctx context.Context, id uint) error {
	rows, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete part")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "part not found")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uint) (*models.Part, error) {
	part, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err)
	}
	return part, nil
}

func mapLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "part not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load part")
}

func (s *service) ensureStore(ctx context.Context, storeID uint) error {
	if storeID == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "store_id is required")
	}
	if _, err := s.stores.FindByID(ctx, storeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return nil
}

func validatePart(part *models.Part) error {
	details := map[string]any{}
	if utf8.RuneCountInString(part.Name) < minLabelLength {
		details["name"] = fmt.Sprintf("must have at least %d characters", minLabelLength)
	}
	if utf8.RuneCountInString(part.Type) < minLabelLength {
		details["type"] = fmt.Sprintf("must have at least %d characters", minLabelLength)
	}
	if part.Quantity < 0 {
		details["quantity"] = "must not be negative"
	}
	if !part.Price.IsPositive() {
		details["price"] = "must be greater than 0"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid part").WithDetails(details)
	}
	return nil
}
