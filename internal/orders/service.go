package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/angelmondragon/partshop-backend/internal/parts"
	"github.com/angelmondragon/partshop-backend/internal/users"
	pkgAuth "github.com/angelmondragon/partshop-backend/pkg/auth"
	"github.com/angelmondragon/partshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/partshop-backend/pkg/errors"
	"github.com/angelmondragon/partshop-backend/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Rejection reasons reported to metrics.
const (
	RejectValidation          = "validation"
	RejectNotFound            = "not_found"
	RejectInsufficientStock   = "insufficient_stock"
	RejectInsufficientBalance = "insufficient_balance"
	RejectOther               = "other"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderMetrics interface {
	ObservePlaced(total float64)
	IncCancelled()
	IncRejected(reason string)
}

// Service defines the order workflow.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*OrderDTO, error)
	CancelOrder(ctx context.Context, input CancelOrderInput) error
	GetOrder(ctx context.Context, actor pkgAuth.Actor, orderID uint) (*OrderDTO, error)
	ListOrders(ctx context.Context, actor pkgAuth.Actor, params pagination.Params) (*OrderList, error)
}

// CancelOrderInput identifies the order to cancel. A nil Actor skips the
// ownership check.
type CancelOrderInput struct {
	OrderID uint
	Actor   *pkgAuth.Actor
}

type service struct {
	repo    Repository
	parts   *parts.Repository
	users   *users.Repository
	tx      txRunner
	metrics orderMetrics
}

// ServiceParams bundles the order workflow dependencies.
type ServiceParams struct {
	Repo    Repository
	Parts   *parts.Repository
	Users   *users.Repository
	Tx      txRunner
	Metrics orderMetrics
}

// NewService builds an order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Parts == nil {
		return nil, fmt.Errorf("parts repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:    params.Repo,
		parts:   params.Parts,
		users:   params.Users,
		tx:      params.Tx,
		metrics: params.Metrics,
	}, nil
}

// PlaceOrder reserves stock, debits the buyer and records the order in one
// transaction. Nothing is written unless every check passes.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*OrderDTO, error) {
	requested, err := validatePlaceOrder(input)
	if err != nil {
		s.rejected(err)
		return nil, err
	}
	partIDs := sortedIDs(requested)

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.users.WithTx(tx)
		partRepo := s.parts.WithTx(tx)

		user, err := userRepo.FindByIDForUpdate(ctx, input.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}

		locked, err := partRepo.FindByIDsForUpdate(ctx, partIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load parts")
		}
		byID := make(map[uint]models.Part, len(locked))
		for _, p := range locked {
			byID[p.ID] = p
		}
		for _, id := range partIDs {
			p, ok := byID[id]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("part %d not found", id)).
					WithDetails(map[string]any{"part_id": id})
			}
			if p.Quantity < requested[id] {
				return insufficientStock(id, p.Quantity, requested[id])
			}
			if !p.Price.IsPositive() {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("part %d has no price", id)).
					WithDetails(map[string]any{"part_id": id})
			}
		}

		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(input.Items))
		for _, line := range input.Items {
			partID := line.PartID
			subtotal := byID[partID].Price.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
			total = total.Add(subtotal)
			items = append(items, models.OrderItem{
				PartID:   &partID,
				Quantity: line.Quantity,
				Subtotal: subtotal,
			})
		}

		if user.Balance.LessThan(total) {
			return insufficientBalance(user.Balance, total)
		}

		for _, id := range partIDs {
			rows, err := partRepo.DecrementStock(ctx, id, requested[id])
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
			if rows == 0 {
				return insufficientStock(id, byID[id].Quantity, requested[id])
			}
		}

		userID := user.ID
		order = &models.Order{UserID: &userID, Total: total, Items: items}
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		rows, err := userRepo.DebitBalance(ctx, user.ID, total)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit balance")
		}
		if rows == 0 {
			return insufficientBalance(user.Balance, total)
		}
		return nil
	})
	if err != nil {
		s.rejected(err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ObservePlaced(order.Total.InexactFloat64())
	}
	return FromModel(order), nil
}

// CancelOrder deletes the order and reverses its effects. Parts or users
// removed since the order was placed are skipped.
func (s *service) CancelOrder(ctx context.Context, input CancelOrderInput) error {
	if input.OrderID == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		partRepo := s.parts.WithTx(tx)
		userRepo := s.users.WithTx(tx)

		order, err := repo.FindByIDForUpdate(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if input.Actor != nil && !input.Actor.CanAccess(order.UserID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
		}

		for _, item := range order.Items {
			if item.PartID == nil {
				continue
			}
			if _, err := partRepo.IncrementStock(ctx, *item.PartID, item.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
			}
		}

		if order.UserID != nil {
			if _, err := userRepo.CreditBalance(ctx, *order.UserID, order.Total); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund balance")
			}
		}

		rows, err := repo.Delete(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.IncCancelled()
	}
	return nil
}

func (s *service) GetOrder(ctx context.Context, actor pkgAuth.Actor, orderID uint) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !actor.CanAccess(order.UserID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return FromModel(order), nil
}

// ListOrders returns the actor's own orders, or every order for admins.
func (s *service) ListOrders(ctx context.Context, actor pkgAuth.Actor, params pagination.Params) (*OrderList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	filter := ListFilter{}
	if !actor.IsAdmin() {
		if actor.UserID == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
		}
		userID := actor.UserID
		filter.UserID = &userID
	}

	rows, err := s.repo.List(ctx, filter, params, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	rows, page := pagination.Trim(rows, params.Limit, func(m models.Order) uint { return m.ID })

	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return &OrderList{Orders: out, Page: page}, nil
}

func (s *service) rejected(err error) {
	if s.metrics == nil {
		return
	}
	reason := RejectOther
	switch typed := pkgerrors.As(err); {
	case typed == nil:
	case typed.Code() == pkgerrors.CodeValidation:
		reason = RejectValidation
	case typed.Code() == pkgerrors.CodeNotFound:
		reason = RejectNotFound
	case typed.Code() == pkgerrors.CodeInsufficientStock:
		reason = RejectInsufficientStock
	case typed.Code() == pkgerrors.CodeInsufficientBalance:
		reason = RejectInsufficientBalance
	}
	s.metrics.IncRejected(reason)
}

// validatePlaceOrder checks the request shape and sums quantities per part.
func validatePlaceOrder(input PlaceOrderInput) (map[uint]int, error) {
	if input.UserID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}

	requested := make(map[uint]int, len(input.Items))
	for i, line := range input.Items {
		if line.PartID == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "part id required").
				WithDetails(map[string]any{"item": i})
		}
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer").
				WithDetails(map[string]any{"item": i, "quantity": line.Quantity})
		}
		requested[line.PartID] += line.Quantity
	}
	return requested, nil
}

func sortedIDs(requested map[uint]int) []uint {
	ids := make([]uint, 0, len(requested))
	for id := range requested {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func insufficientStock(partID uint, available, requested int) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("insufficient stock for part %d", partID)).
		WithDetails(map[string]any{
			"part_id":   partID,
			"available": available,
			"requested": requested,
		})
}

func insufficientBalance(balance, total decimal.Decimal) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientBalance, "insufficient balance").
		WithDetails(map[string]any{
			"balance": balance.StringFixed(2),
			"total":   total.StringFixed(2),
		})
}
