package orders

import (
	"context"
	"testing"

	"github.com/angelmondragon/partshop-backend/internal/parts"
	"github.com/angelmondragon/partshop-backend/internal/users"
	pkgAuth "github.com/angelmondragon/partshop-backend/pkg/auth"
	"github.com/angelmondragon/partshop-backend/pkg/db"
	"github.com/angelmondragon/partshop-backend/pkg/db/models"
	"github.com/angelmondragon/partshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/partshop-backend/pkg/errors"
	"github.com/angelmondragon/partshop-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeMetrics struct {
	placed    []float64
	cancelled int
	rejected  []string
}

func (f *fakeMetrics) ObservePlaced(total float64) { f.placed = append(f.placed, total) }
func (f *fakeMetrics) IncCancelled()               { f.cancelled++ }
func (f *fakeMetrics) IncRejected(reason string)   { f.rejected = append(f.rejected, reason) }

type fixture struct {
	conn    *gorm.DB
	svc     Service
	metrics *fakeMetrics
	store   *models.Store
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(models.All()...))
	return conn
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := newTestDB(t)
	m := &fakeMetrics{}
	svc, err := NewService(ServiceParams{
		Repo:    NewRepository(conn),
		Parts:   parts.NewRepository(conn),
		Users:   users.NewRepository(conn),
		Tx:      db.NewFromConn(conn),
		Metrics: m,
	})
	require.NoError(t, err)

	store := &models.Store{Name: "Loja Teste", Address: "Rua Dois, 200 Bairro", Phone: "1155556666"}
	require.NoError(t, conn.Create(store).Error)
	return &fixture{conn: conn, svc: svc, metrics: m, store: store}
}

func (f *fixture) user(t *testing.T, balance string) *models.User {
	t.Helper()
	user := &models.User{
		Name:    "Cliente",
		Email:   uuid.NewString() + "@example.com",
		Balance: decimal.RequireFromString(balance),
		Role:    enums.UserRoleCustomer,
	}
	require.NoError(t, f.conn.Create(user).Error)
	return user
}

func (f *fixture) part(t *testing.T, price string, qty int) *models.Part {
	t.Helper()
	part := &models.Part{
		Name:     "Peca",
		Type:     "Motor",
		Quantity: qty,
		Price:    decimal.RequireFromString(price),
		StoreID:  f.store.ID,
	}
	require.NoError(t, f.conn.Create(part).Error)
	return part
}

func (f *fixture) stock(t *testing.T, partID uint) int {
	t.Helper()
	var part models.Part
	require.NoError(t, f.conn.First(&part, partID).Error)
	return part.Quantity
}

func (f *fixture) balance(t *testing.T, userID uint) decimal.Decimal {
	t.Helper()
	var user models.User
	require.NoError(t, f.conn.First(&user, userID).Error)
	return user.Balance
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.conn.Model(model).Count(&n).Error)
	return n
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	require.True(t, pkgerrors.IsCode(err, code), "expected %s, got %v", code, err)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "expected %s, got %s", want, got)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestPlaceOrderDebitsBalanceAndStock(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "100.00")
	part := f.part(t, "30.00", 5)
	ctx := context.Background()

	order, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{
		UserID: user.ID,
		Items:  []LineInput{{PartID: part.ID, Quantity: 3}},
	})
	require.NoError(t, err)
	assertDecimal(t, "90.00", order.Total)
	require.Len(t, order.Items, 1)
	assertDecimal(t, "90.00", order.Items[0].Subtotal)
	assert.Equal(t, user.ID, *order.UserID)

	assertDecimal(t, "10.00", f.balance(t, user.ID))
	assert.Equal(t, 2, f.stock(t, part.ID))

	_, err = f.svc.PlaceOrder(ctx, PlaceOrderInput{
		UserID: user.ID,
		Items:  []LineInput{{PartID: part.ID, Quantity: 1}},
	})
	requireCode(t, err, pkgerrors.CodeInsufficientBalance)

	assertDecimal(t, "10.00", f.balance(t, user.ID))
	assert.Equal(t, 2, f.stock(t, part.ID))
	assert.Equal(t, int64(1), f.count(t, &models.Order{}))
	assert.Equal(t, int64(1), f.count(t, &models.OrderItem{}))

	assert.Equal(t, []float64{90}, f.metrics.placed)
	assert.Equal(t, []string{RejectInsufficientBalance}, f.metrics.rejected)
}

func TestPlaceOrderTotalMatchesItemSubtotals(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "500.00")
	filter := f.part(t, "12.35", 10)
	belt := f.part(t, "99.90", 10)

	order, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID: user.ID,
		Items: []LineInput{
			{PartID: belt.ID, Quantity: 2},
			{PartID: filter.ID, Quantity: 3},
		},
	})
	require.NoError(t, err)

	sum := decimal.Zero
	for _, item := range order.Items {
		sum = sum.Add(item.Subtotal)
	}
	assert.True(t, sum.Equal(order.Total), "items %s total %s", sum, order.Total)
	assertDecimal(t, "236.85", order.Total)
	assertDecimal(t, "263.15", f.balance(t, user.ID))
}

func TestPlaceOrderExactStockBoundary(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "1000.00")
	part := f.part(t, "10.00", 4)
	ctx := context.Background()

	_, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{UserID: user.ID, Items: []LineInput{{PartID: part.ID, Quantity: 5}}})
	requireCode(t, err, pkgerrors.CodeInsufficientStock)
	assert.Equal(t, 4, f.stock(t, part.ID))

	_, err = f.svc.PlaceOrder(ctx, PlaceOrderInput{UserID: user.ID, Items: []LineInput{{PartID: part.ID, Quantity: 4}}})
	require.NoError(t, err)
	assert.Equal(t, 0, f.stock(t, part.ID))

	_, err = f.svc.PlaceOrder(ctx, PlaceOrderInput{UserID: user.ID, Items: []LineInput{{PartID: part.ID, Quantity: 1}}})
	requireCode(t, err, pkgerrors.CodeInsufficientStock)
	assertDecimal(t, "960.00", f.balance(t, user.ID))
}

func TestPlaceOrderSumsDuplicateLines(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "100.00")
	part := f.part(t, "5.00", 3)
	ctx := context.Background()

	_, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{
		UserID: user.ID,
		Items:  []LineInput{{PartID: part.ID, Quantity: 2}, {PartID: part.ID, Quantity: 2}},
	})
	requireCode(t, err, pkgerrors.CodeInsufficientStock)
	assert.Equal(t, 3, f.stock(t, part.ID))

	order, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{
		UserID: user.ID,
		Items:  []LineInput{{PartID: part.ID, Quantity: 1}, {PartID: part.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, 0, f.stock(t, part.ID))
	assertDecimal(t, "15.00", order.Total)
}

func TestPlaceOrderValidationHappensFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []PlaceOrderInput{
		{UserID: 1},
		{UserID: 1, Items: []LineInput{{PartID: 1, Quantity: 0}}},
		{UserID: 1, Items: []LineInput{{PartID: 1, Quantity: -2}}},
		{UserID: 1, Items: []LineInput{{PartID: 0, Quantity: 1}}},
		{Items: []LineInput{{PartID: 1, Quantity: 1}}},
	}
	for _, input := range cases {
		_, err := f.svc.PlaceOrder(ctx, input)
		requireCode(t, err, pkgerrors.CodeValidation)
	}
	assert.Len(t, f.metrics.rejected, len(cases))
}

func TestPlaceOrderMissingRecords(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "100.00")
	part := f.part(t, "10.00", 2)
	ctx := context.Background()

	_, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{UserID: user.ID + 99, Items: []LineInput{{PartID: part.ID, Quantity: 1}}})
	requireCode(t, err, pkgerrors.CodeNotFound)

	_, err = f.svc.PlaceOrder(ctx, PlaceOrderInput{
		UserID: user.ID,
		Items:  []LineInput{{PartID: part.ID, Quantity: 1}, {PartID: part.ID + 99, Quantity: 1}},
	})
	requireCode(t, err, pkgerrors.CodeNotFound)

	assert.Equal(t, 2, f.stock(t, part.ID))
	assertDecimal(t, "100.00", f.balance(t, user.ID))
	assert.Zero(t, f.count(t, &models.Order{}))
}

func TestCancelOrderRestoresState(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "100.00")
	part := f.part(t, "30.00", 5)
	ctx := context.Background()

	order, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{UserID: user.ID, Items: []LineInput{{PartID: part.ID, Quantity: 3}}})
	require.NoError(t, err)

	actor := pkgAuth.Actor{UserID: user.ID, Role: enums.UserRoleCustomer}
	require.NoError(t, f.svc.CancelOrder(ctx, CancelOrderInput{OrderID: order.ID, Actor: &actor}))

	assertDecimal(t, "100.00", f.balance(t, user.ID))
	assert.Equal(t, 5, f.stock(t, part.ID))
	assert.Zero(t, f.count(t, &models.Order{}))
	assert.Zero(t, f.count(t, &models.OrderItem{}))
	assert.Equal(t, 1, f.metrics.cancelled)

	err = f.svc.CancelOrder(ctx, CancelOrderInput{OrderID: order.ID, Actor: &actor})
	requireCode(t, err, pkgerrors.CodeNotFound)
	assertDecimal(t, "100.00", f.balance(t, user.ID))
	assert.Equal(t, 5, f.stock(t, part.ID))
}

func TestCancelOrderChecksOwnership(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "50.00")
	other := f.user(t, "50.00")
	part := f.part(t, "20.00", 2)
	ctx := context.Background()

	order, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{UserID: owner.ID, Items: []LineInput{{PartID: part.ID, Quantity: 1}}})
	require.NoError(t, err)

	intruder := pkgAuth.Actor{UserID: other.ID, Role: enums.UserRoleCustomer}
	err = f.svc.CancelOrder(ctx, CancelOrderInput{OrderID: order.ID, Actor: &intruder})
	requireCode(t, err, pkgerrors.CodeForbidden)
	assert.Equal(t, 1, f.stock(t, part.ID))

	admin := pkgAuth.Actor{UserID: other.ID, Role: enums.UserRoleAdmin}
	require.NoError(t, f.svc.CancelOrder(ctx, CancelOrderInput{OrderID: order.ID, Actor: &admin}))
	assert.Equal(t, 2, f.stock(t, part.ID))
	assertDecimal(t, "50.00", f.balance(t, owner.ID))
}

func TestCancelOrderSkipsRemovedPartsAndUsers(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "100.00")
	kept := f.part(t, "10.00", 5)
	removed := f.part(t, "10.00", 5)
	ctx := context.Background()

	order, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{
		UserID: user.ID,
		Items:  []LineInput{{PartID: kept.ID, Quantity: 2}, {PartID: removed.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	// Mirror ON DELETE SET NULL, which sqlite does not enforce here.
	require.NoError(t, f.conn.Delete(&models.Part{}, removed.ID).Error)
	require.NoError(t, f.conn.Model(&models.OrderItem{}).Where("part_id = ?", removed.ID).Update("part_id", nil).Error)
	require.NoError(t, f.conn.Delete(&models.User{}, user.ID).Error)
	require.NoError(t, f.conn.Model(&models.Order{}).Where("id = ?", order.ID).Update("user_id", nil).Error)

	require.NoError(t, f.svc.CancelOrder(ctx, CancelOrderInput{OrderID: order.ID}))
	assert.Equal(t, 5, f.stock(t, kept.ID))
	assert.Zero(t, f.count(t, &models.Order{}))
}

func TestGetAndListOrders(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "100.00")
	bob := f.user(t, "100.00")
	part := f.part(t, "1.00", 50)
	ctx := context.Background()

	var aliceOrders []uint
	for i := 0; i < 3; i++ {
		order, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{UserID: alice.ID, Items: []LineInput{{PartID: part.ID, Quantity: 1}}})
		require.NoError(t, err)
		aliceOrders = append(aliceOrders, order.ID)
	}
	bobOrder, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{UserID: bob.ID, Items: []LineInput{{PartID: part.ID, Quantity: 2}}})
	require.NoError(t, err)

	aliceActor := pkgAuth.Actor{UserID: alice.ID, Role: enums.UserRoleCustomer}
	page, err := f.svc.ListOrders(ctx, aliceActor, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Orders, 2)
	assert.Equal(t, aliceOrders[2], page.Orders[0].ID)
	require.NotEmpty(t, page.NextCursor)
	require.Len(t, page.Orders[0].Items, 1)

	rest, err := f.svc.ListOrders(ctx, aliceActor, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Orders, 1)
	assert.Equal(t, aliceOrders[0], rest.Orders[0].ID)

	all, err := f.svc.ListOrders(ctx, pkgAuth.Actor{UserID: alice.ID, Role: enums.UserRoleAdmin}, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, all.Orders, 4)

	got, err := f.svc.GetOrder(ctx, pkgAuth.Actor{UserID: bob.ID, Role: enums.UserRoleCustomer}, bobOrder.ID)
	require.NoError(t, err)
	assertDecimal(t, "2.00", got.Total)

	_, err = f.svc.GetOrder(ctx, aliceActor, bobOrder.ID)
	requireCode(t, err, pkgerrors.CodeForbidden)

	_, err = f.svc.GetOrder(ctx, aliceActor, bobOrder.ID+100)
	requireCode(t, err, pkgerrors.CodeNotFound)
}
