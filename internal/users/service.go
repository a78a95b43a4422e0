package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/partshop-backend/pkg/db"
	"github.com/angelmondragon/partshop-backend/pkg/db/models"
	"github.com/angelmondragon/partshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/partshop-backend/pkg/errors"
	"github.com/angelmondragon/partshop-backend/pkg/pagination"
	"gorm.io/gorm"
)

const emailUniqueConstraint = "users_email_key"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type auditRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, userID *uint, action enums.AuditAction) error
}

// Service manages the authenticated user's own account plus the admin
// listing and unblocking of accounts.
type Service interface {
	List(ctx context.Context, params pagination.Params) (*UserList, error)
	Me(ctx context.Context, userID uint) (*UserDTO, error)
	UpdateProfile(ctx context.Context, userID uint, req UpdateProfileRequest) (*UserDTO, error)
	Delete(ctx context.Context, userID uint) error
	Unblock(ctx context.Context, userID uint) (*UserDTO, error)
	IsActive(ctx context.Context, userID uint) (bool, error)
}

type service struct {
	repo  *Repository
	tx    txRunner
	audit auditRecorder
}

// ServiceParams bundles the dependencies of the users service.
type ServiceParams struct {
	Repo  *Repository
	Tx    txRunner
	Audit auditRecorder
}

// NewService builds a users service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{repo: params.Repo, tx: params.Tx, audit: params.Audit}, nil
}

func (s *service) Me(ctx context.Context, userID uint) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, mapLookupError(err)
	}
	return FromModel(user), nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*UserList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, params, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}

	rows, page := pagination.Trim(rows, params.Limit, func(m models.User) uint { return m.ID })
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return &UserList{Users: out, Page: page}, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uint, req UpdateProfileRequest) (*UserDTO, error) {
	changes := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if len([]rune(name)) < 3 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must have at least 3 characters")
		}
		changes["name"] = name
	}
	if req.Email != nil {
		email := NormalizeEmail(*req.Email)
		if email == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
		}
		changes["email"] = email
	}

	var dto *UserDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		user, err := repo.FindByIDForUpdate(ctx, userID)
		if err != nil {
			return mapLookupError(err)
		}

		if email, ok := changes["email"].(string); ok && email != user.Email {
			if _, err := repo.FindByEmail(ctx, email); err == nil {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user email")
			}
		}

		if err := repo.UpdateProfile(ctx, userID, changes); err != nil {
			if db.IsUniqueViolation(err, emailUniqueConstraint) {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
		}
		if err := s.audit.Record(ctx, tx, &userID, enums.AuditActionUserUpdated); err != nil {
			return err
		}

		updated, err := repo.FindByID(ctx, userID)
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

func (s *service) Delete(ctx context.Context, userID uint) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.repo.WithTx(tx).Delete(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		// The row is gone, so the entry carries no user.
		return s.audit.Record(ctx, tx, nil, enums.AuditActionUserDeleted)
	})
}

func (s *service) Unblock(ctx context.Context, userID uint) (*UserDTO, error) {
	var dto *UserDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		user, err := repo.FindByIDForUpdate(ctx, userID)
		if err != nil {
			return mapLookupError(err)
		}
		if err := repo.ResetLockout(ctx, user.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset lockout")
		}
		if err := s.audit.Record(ctx, tx, &user.ID, enums.AuditActionUserUnblocked); err != nil {
			return err
		}
		user.FailedLoginCount = 0
		user.Blocked = false
		dto = FromModel(user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// IsActive reports whether the account still exists and is not blocked.
func (s *service) IsActive(ctx context.Context, userID uint) (bool, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return !user.Blocked, nil
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func mapLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
}
