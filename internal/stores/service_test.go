package stores

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/partshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/partshop-backend/pkg/errors"
	"github.com/angelmondragon/partshop-backend/pkg/pagination"
	"gorm.io/gorm"
)

type stubStoreRepo struct {
	store     *models.Store
	stores    []models.Store
	err       error
	parts     int64
	deleted   int64
	deleteErr error
	created   *models.Store
	updated   *models.Store
	cursor    *pagination.Cursor
}

func (s *stubStoreRepo) Create(ctx context.Context, store *models.Store) error {
	if s.err != nil {
		return s.err
	}
	store.ID = 11
	s.created = store
	return nil
}

func (s *stubStoreRepo) FindByID(ctx context.Context, id uint) (*models.Store, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.store == nil || s.store.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *s.store
	return &clone, nil
}

func (s *stubStoreRepo) List(ctx context.Context, params pagination.Params, cursor *pagination.Cursor) ([]models.Store, error) {
	s.cursor = cursor
	return s.stores, s.err
}

func (s *stubStoreRepo) Update(ctx context.Context, store *models.Store) error {
	s.updated = store
	return s.err
}

func (s *stubStoreRepo) CountParts(ctx context.Context, storeID uint) (int64, error) {
	return s.parts, s.err
}

func (s *stubStoreRepo) Delete(ctx context.Context, id uint) (int64, error) {
	return s.deleted, s.deleteErr
}

func baseStore() *models.Store {
	return &models.Store{
		ID:      7,
		Name:    "Auto Pecas Centro",
		Address: "Rua das Flores, 120",
		Phone:   "11987654321",
	}
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != code {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func TestNewServiceRequiresRepo(t *testing.T) {
	if _, err := NewService(nil); err == nil {
		t.Fatal("expected error creating service without repo")
	}
}

func TestServiceCreateTrimsAndPersists(t *testing.T) {
	repo := &stubStoreRepo{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	dto, err := svc.Create(context.Background(), CreateStoreInput{
		Name:    "  Loja Sul ",
		Address: "Av. Brasil, 1500",
		Phone:   "2133334444",
	})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	if dto.ID != 11 || dto.Name != "Loja Sul" {
		t.Fatalf("unexpected dto %+v", dto)
	}
	if repo.created == nil || repo.created.Name != "Loja Sul" {
		t.Fatalf("store not persisted: %+v", repo.created)
	}
}

func TestServiceCreateValidation(t *testing.T) {
	repo := &stubStoreRepo{}
	svc, _ := NewService(repo)

	_, err := svc.Create(context.Background(), CreateStoreInput{Name: "L", Address: "curta", Phone: "123"})
	assertCode(t, err, pkgerrors.CodeValidation)

	details, ok := pkgerrors.As(err).Details().(map[string]any)
	if !ok || len(details) != 3 {
		t.Fatalf("expected three field violations, got %v", pkgerrors.As(err).Details())
	}
	if repo.created != nil {
		t.Fatal("invalid store must not be persisted")
	}
}

func TestServiceGetByID(t *testing.T) {
	store := baseStore()
	svc, _ := NewService(&stubStoreRepo{store: store})

	dto, err := svc.GetByID(context.Background(), store.ID)
	if err != nil {
		t.Fatalf("get store: %v", err)
	}
	if dto.Phone != store.Phone {
		t.Fatalf("expected phone %q got %q", store.Phone, dto.Phone)
	}

	_, err = svc.GetByID(context.Background(), 99)
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestServiceGetByIDDependencyError(t *testing.T) {
	svc, _ := NewService(&stubStoreRepo{err: errors.New("boom")})

	_, err := svc.GetByID(context.Background(), 1)
	assertCode(t, err, pkgerrors.CodeDependency)
}

func TestServiceListPaginates(t *testing.T) {
	repo := &stubStoreRepo{stores: []models.Store{{ID: 5}, {ID: 4}, {ID: 3}}}
	svc, _ := NewService(repo)

	cursor := pagination.EncodeCursor(pagination.Cursor{ID: 6})
	list, err := svc.List(context.Background(), pagination.Params{Limit: 2, Cursor: cursor})
	if err != nil {
		t.Fatalf("list stores: %v", err)
	}
	if len(list.Stores) != 2 {
		t.Fatalf("expected 2 stores, got %d", len(list.Stores))
	}
	if repo.cursor == nil || repo.cursor.ID != 6 {
		t.Fatalf("expected cursor 6, got %+v", repo.cursor)
	}
	next, err := pagination.ParseCursor(list.NextCursor)
	if err != nil || next == nil || next.ID != 4 {
		t.Fatalf("expected next cursor at id 4, got %+v (%v)", next, err)
	}

	_, err = svc.List(context.Background(), pagination.Params{Cursor: "%%%"})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestServiceUpdate(t *testing.T) {
	repo := &stubStoreRepo{store: baseStore()}
	svc, _ := NewService(repo)

	phone := "1130304040"
	dto, err := svc.Update(context.Background(), 7, UpdateStoreInput{Phone: &phone})
	if err != nil {
		t.Fatalf("update store: %v", err)
	}
	if dto.Phone != phone || repo.updated == nil || repo.updated.Phone != phone {
		t.Fatalf("phone not updated: %+v", repo.updated)
	}
	if dto.Name != "Auto Pecas Centro" {
		t.Fatalf("untouched field changed: %q", dto.Name)
	}

	short := "x"
	repo.updated = nil
	_, err = svc.Update(context.Background(), 7, UpdateStoreInput{Name: &short})
	assertCode(t, err, pkgerrors.CodeValidation)
	if repo.updated != nil {
		t.Fatal("invalid update must not be persisted")
	}
}

func TestServiceDelete(t *testing.T) {
	svc, _ := NewService(&stubStoreRepo{deleted: 1})
	if err := svc.Delete(context.Background(), 7); err != nil {
		t.Fatalf("delete store: %v", err)
	}

	svc, _ = NewService(&stubStoreRepo{parts: 2, deleted: 1})
	assertCode(t, svc.Delete(context.Background(), 7), pkgerrors.CodeConflict)

	svc, _ = NewService(&stubStoreRepo{deleted: 0})
	assertCode(t, svc.Delete(context.Background(), 7), pkgerrors.CodeNotFound)

	svc, _ = NewService(&stubStoreRepo{deleteErr: errors.New("FOREIGN KEY constraint failed")})
	assertCode(t, svc.Delete(context.Background(), 7), pkgerrors.CodeConflict)
}
