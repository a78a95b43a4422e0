package users

import (
	"context"
	"testing"

	"github.com/angelmondragon/partshop-backend/internal/auditlog"
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

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:users_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(models.All()...))
	return conn
}

func newTestService(t *testing.T) (Service, *Repository, *gorm.DB) {
	t.Helper()
	conn := newTestDB(t)
	audit, err := auditlog.NewService(auditlog.NewRepository(conn))
	require.NoError(t, err)

	repo := NewRepository(conn)
	svc, err := NewService(ServiceParams{Repo: repo, Tx: db.NewFromConn(conn), Audit: audit})
	require.NoError(t, err)
	return svc, repo, conn
}

func seedUser(t *testing.T, repo *Repository, email string) *models.User {
	t.Helper()
	user, err := repo.Create(context.Background(), CreateUserDTO{
		Name:         "Ana Souza",
		Email:        email,
		PasswordHash: "$2a$10$placeholder",
		Balance:      decimal.NewFromInt(50),
	})
	require.NoError(t, err)
	return user
}

func auditActions(t *testing.T, conn *gorm.DB) []enums.AuditAction {
	t.Helper()
	var rows []models.AuditLog
	require.NoError(t, conn.Order("id ASC").Find(&rows).Error)
	actions := make([]enums.AuditAction, 0, len(rows))
	for _, row := range rows {
		actions = append(actions, row.Action)
	}
	return actions
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestMeOmitsCredential(t *testing.T) {
	svc, repo, _ := newTestService(t)
	user := seedUser(t, repo, "ana@example.com")

	dto, err := svc.Me(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", dto.Email)
	assert.Equal(t, enums.UserRoleCustomer, dto.Role)
	assert.True(t, dto.Balance.Equal(decimal.NewFromInt(50)))

	_, err = svc.Me(context.Background(), user.ID+100)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListPagesNewestFirst(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	var ids []uint
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		ids = append(ids, seedUser(t, repo, email).ID)
	}

	first, err := svc.List(ctx, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Users, 2)
	assert.Equal(t, ids[2], first.Users[0].ID)
	assert.Equal(t, ids[1], first.Users[1].ID)
	require.NotEmpty(t, first.NextCursor)

	rest, err := svc.List(ctx, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Users, 1)
	assert.Equal(t, ids[0], rest.Users[0].ID)
	assert.Empty(t, rest.NextCursor)

	_, err = svc.List(ctx, pagination.Params{Limit: 2, Cursor: "not-a-cursor"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
}

func TestUpdateProfile(t *testing.T) {
	svc, repo, conn := newTestService(t)
	user := seedUser(t, repo, "ana@example.com")
	seedUser(t, repo, "taken@example.com")
	ctx := context.Background()

	name := "Ana Maria"
	email := " NEW@example.com "
	dto, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileRequest{Name: &name, Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", dto.Name)
	assert.Equal(t, "new@example.com", dto.Email)
	assert.Equal(t, []enums.AuditAction{enums.AuditActionUserUpdated}, auditActions(t, conn))

	taken := "taken@example.com"
	_, err = svc.UpdateProfile(ctx, user.ID, UpdateProfileRequest{Email: &taken})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	short := "Al"
	_, err = svc.UpdateProfile(ctx, user.ID, UpdateProfileRequest{Name: &short})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	assert.Len(t, auditActions(t, conn), 1)
}

func TestDeleteKeepsAuditRowWithoutUser(t *testing.T) {
	svc, repo, conn := newTestService(t)
	user := seedUser(t, repo, "gone@example.com")
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, user.ID))

	var count int64
	require.NoError(t, conn.Model(&models.User{}).Where("id = ?", user.ID).Count(&count).Error)
	assert.Zero(t, count)

	var entry models.AuditLog
	require.NoError(t, conn.Where("action = ?", enums.AuditActionUserDeleted).First(&entry).Error)
	assert.Nil(t, entry.UserID)

	err := svc.Delete(ctx, user.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestUnblockResetsLockout(t *testing.T) {
	svc, repo, conn := newTestService(t)
	user := seedUser(t, repo, "blocked@example.com")
	ctx := context.Background()
	require.NoError(t, repo.RecordFailedLogin(ctx, user.ID, 3, true))

	active, err := svc.IsActive(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, active)

	dto, err := svc.Unblock(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, dto.Blocked)
	assert.Zero(t, dto.FailedLoginCount)

	var stored models.User
	require.NoError(t, conn.First(&stored, user.ID).Error)
	assert.False(t, stored.Blocked)
	assert.Zero(t, stored.FailedLoginCount)
	assert.Equal(t, []enums.AuditAction{enums.AuditActionUserUnblocked}, auditActions(t, conn))

	active, err = svc.IsActive(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, active)

	_, err = svc.Unblock(ctx, user.ID+100)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestIsActiveMissingUser(t *testing.T) {
	svc, _, _ := newTestService(t)

	active, err := svc.IsActive(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestBalanceGuards(t *testing.T) {
	_, repo, conn := newTestService(t)
	user := seedUser(t, repo, "wallet@example.com")
	ctx := context.Background()

	rows, err := repo.DebitBalance(ctx, user.ID, decimal.NewFromInt(60))
	require.NoError(t, err)
	assert.Zero(t, rows)

	rows, err = repo.DebitBalance(ctx, user.ID, decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	rows, err = repo.CreditBalance(ctx, user.ID, decimal.RequireFromString("12.50"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	var stored models.User
	require.NoError(t, conn.First(&stored, user.ID).Error)
	assert.True(t, stored.Balance.Equal(decimal.RequireFromString("12.5")), "balance %s", stored.Balance)

	rows, err = repo.CreditBalance(ctx, user.ID+100, decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.Zero(t, rows)
}
