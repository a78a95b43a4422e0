package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/partshop-backend/internal/auditlog"
	"github.com/angelmondragon/partshop-backend/internal/users"
	"github.com/angelmondragon/partshop-backend/pkg/config"
	"github.com/angelmondragon/partshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/partshop-backend/pkg/errors"
	"github.com/angelmondragon/partshop-backend/pkg/pagination"
	"gorm.io/gorm"
)

type stubUserService struct {
	lastID  uint
	update  *users.UpdateProfileRequest
	deleted bool
	params  pagination.Params
	err     error
}

func (s *stubUserService) List(ctx context.Context, params pagination.Params) (*users.UserList, error) {
	s.params = params
	if s.err != nil {
		return nil, s.err
	}
	return &users.UserList{Users: []users.UserDTO{{ID: 2, Name: "Maria"}}}, nil
}

func (s *stubUserService) Me(ctx context.Context, userID uint) (*users.UserDTO, error) {
	s.lastID = userID
	if s.err != nil {
		return nil, s.err
	}
	return &users.UserDTO{ID: userID, Name: "Maria"}, nil
}

func (s *stubUserService) UpdateProfile(ctx context.Context, userID uint, req users.UpdateProfileRequest) (*users.UserDTO, error) {
	s.lastID = userID
	s.update = &req
	if s.err != nil {
		return nil, s.err
	}
	return &users.UserDTO{ID: userID}, nil
}

func (s *stubUserService) Delete(ctx context.Context, userID uint) error {
	s.lastID = userID
	s.deleted = s.err == nil
	return s.err
}

func (s *stubUserService) Unblock(ctx context.Context, userID uint) (*users.UserDTO, error) {
	s.lastID = userID
	if s.err != nil {
		return nil, s.err
	}
	return &users.UserDTO{ID: userID}, nil
}

func (s *stubUserService) IsActive(ctx context.Context, userID uint) (bool, error) {
	return s.err == nil, nil
}

type stubAuditService struct {
	filter auditlog.ListFilter
}

func (s *stubAuditService) Record(ctx context.Context, tx *gorm.DB, userID *uint, action enums.AuditAction) error {
	return nil
}

func (s *stubAuditService) List(ctx context.Context, filter auditlog.ListFilter, params pagination.Params) (*auditlog.EntryList, error) {
	s.filter = filter
	return &auditlog.EntryList{Entries: []auditlog.EntryDTO{}}, nil
}

func TestUserMeUsesCaller(t *testing.T) {
	svc := &stubUserService{}
	resp := httptest.NewRecorder()
	UserMe(svc, nil).ServeHTTP(resp, withActor(jsonRequest(http.MethodGet, "/api/v1/users/me", ""), 11, enums.UserRoleCustomer))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastID != 11 {
		t.Fatalf("expected user 11 got %d", svc.lastID)
	}
}

func TestUserUpdateMeRejectsBalance(t *testing.T) {
	svc := &stubUserService{}
	resp := httptest.NewRecorder()
	UserUpdateMe(svc, nil).ServeHTTP(resp, withActor(jsonRequest(http.MethodPut, "/api/v1/users/me", `{"balance":"1000"}`), 11, enums.UserRoleCustomer))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.update != nil {
		t.Fatal("service must not be called")
	}
}

func TestUserUpdateMeConflict(t *testing.T) {
	svc := &stubUserService{err: pkgerrors.New(pkgerrors.CodeConflict, "email already registered")}
	resp := httptest.NewRecorder()
	UserUpdateMe(svc, nil).ServeHTTP(resp, withActor(jsonRequest(http.MethodPut, "/api/v1/users/me", `{"email":"taken@example.com"}`), 11, enums.UserRoleCustomer))

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestUserDeleteMe(t *testing.T) {
	svc := &stubUserService{}
	resp := httptest.NewRecorder()
	UserDeleteMe(svc, nil).ServeHTTP(resp, withActor(jsonRequest(http.MethodDelete, "/api/v1/users/me", ""), 11, enums.UserRoleCustomer))

	if resp.Code != http.StatusOK || !svc.deleted {
		t.Fatalf("expected deletion, got %d", resp.Code)
	}
}

func TestAdminUnblockUser(t *testing.T) {
	svc := &stubUserService{}
	req := withURLParam(jsonRequest(http.MethodPost, "/api/v1/admin/users/21/unblock", ""), "userID", "21")
	resp := httptest.NewRecorder()
	AdminUnblockUser(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastID != 21 {
		t.Fatalf("expected user 21 got %d", svc.lastID)
	}
}

func TestAdminUserListForwardsPagination(t *testing.T) {
	svc := &stubUserService{}
	resp := httptest.NewRecorder()
	AdminUserList(svc, nil).ServeHTTP(resp, jsonRequest(http.MethodGet, "/api/v1/admin/users?limit=5&cursor=abc", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.params.Limit != 5 || svc.params.Cursor != "abc" {
		t.Fatalf("unexpected params %+v", svc.params)
	}
}

func TestAdminUserListRejectsBadLimit(t *testing.T) {
	svc := &stubUserService{}
	resp := httptest.NewRecorder()
	AdminUserList(svc, nil).ServeHTTP(resp, jsonRequest(http.MethodGet, "/api/v1/admin/users?limit=0", ""))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminAuditLogsUserFilter(t *testing.T) {
	svc := &stubAuditService{}
	resp := httptest.NewRecorder()
	AdminAuditLogs(svc, nil).ServeHTTP(resp, jsonRequest(http.MethodGet, "/api/v1/admin/logs?user_id=3", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.filter.UserID == nil || *svc.filter.UserID != 3 {
		t.Fatalf("expected user filter 3 got %v", svc.filter.UserID)
	}
}

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(ctx context.Context) error {
	return s.err
}

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	resp := httptest.NewRecorder()
	HealthReady(cfg, map[string]Pinger{"db": stubPinger{}}, nil).ServeHTTP(resp, jsonRequest(http.MethodGet, "/health/ready", ""))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	HealthReady(cfg, map[string]Pinger{"redis": stubPinger{err: errors.New("down")}}, nil).ServeHTTP(resp, jsonRequest(http.MethodGet, "/health/ready", ""))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
	if env := decodeError(t, resp); env.Error.Details["dependency"] != "redis" {
		t.Fatalf("expected dependency detail, got %v", env.Error.Details)
	}
}
