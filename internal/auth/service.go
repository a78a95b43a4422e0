package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/partshop-backend/internal/users"
	pkgAuth "github.com/angelmondragon/partshop-backend/pkg/auth"
	"github.com/angelmondragon/partshop-backend/pkg/config"
	"github.com/angelmondragon/partshop-backend/pkg/db/models"
	"github.com/angelmondragon/partshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/partshop-backend/pkg/errors"
	"github.com/angelmondragon/partshop-backend/pkg/metrics"
	"github.com/angelmondragon/partshop-backend/pkg/security"
	"gorm.io/gorm"
)

const (
	invalidCredentialsMessage = "invalid credentials"
	blockedMessage            = "user blocked after repeated invalid login attempts"
)

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	ChangePassword(ctx context.Context, userID uint, req ChangePasswordRequest) (*PasswordChangedDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type auditRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, userID *uint, action enums.AuditAction) error
}

type loginMetrics interface {
	IncLogin(outcome string)
}

type service struct {
	users       *users.Repository
	tx          txRunner
	audit       auditRecorder
	metrics     loginMetrics
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	lockoutCfg  config.LockoutConfig
	now         func() time.Time
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       *users.Repository
	Tx             txRunner
	Audit          auditRecorder
	Metrics        loginMetrics
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	LockoutConfig  config.LockoutConfig
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit recorder is required")
	}
	if params.LockoutConfig.MaxFailedAttempts <= 0 {
		return nil, fmt.Errorf("lockout max failed attempts must be positive")
	}
	return &service{
		users:       params.UserRepo,
		tx:          params.Tx,
		audit:       params.Audit,
		metrics:     params.Metrics,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		lockoutCfg:  params.LockoutConfig,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// Login verifies credentials while holding the user's row lock. Failed
// attempts are persisted and audited even though the call returns an error,
// so the transaction commits and the rejection travels out separately.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	email := users.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	var (
		resp     *LoginResponse
		rejected error
		outcome  string
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)

		user, err := repo.FindByEmailForUpdate(ctx, email)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				outcome = metrics.LoginOutcomeInvalid
				rejected = pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
		}

		if !user.HasCredential() {
			if err := s.audit.Record(ctx, tx, &user.ID, enums.AuditActionLoginFailed); err != nil {
				return err
			}
			outcome = metrics.LoginOutcomeNoCredential
			rejected = pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
			return nil
		}

		if user.Blocked {
			outcome = metrics.LoginOutcomeBlocked
			rejected = pkgerrors.New(pkgerrors.CodeForbidden, blockedMessage)
			return nil
		}

		valid, err := security.VerifyPassword(req.Password, *user.PasswordHash)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
		}
		if !valid {
			blocked, err := s.recordFailure(ctx, tx, repo, user)
			if err != nil {
				return err
			}
			if blocked {
				outcome = metrics.LoginOutcomeLocked
				msg := fmt.Sprintf("user blocked after %d invalid attempts", s.lockoutCfg.MaxFailedAttempts)
				rejected = pkgerrors.New(pkgerrors.CodeUnauthorized, msg)
				return nil
			}
			outcome = metrics.LoginOutcomeInvalid
			rejected = pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
			return nil
		}

		resp, err = s.recordSuccess(ctx, tx, repo, user)
		if err != nil {
			return err
		}
		outcome = metrics.LoginOutcomeSuccess
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncLogin(outcome)
	}
	if rejected != nil {
		return nil, rejected
	}
	return resp, nil
}

// recordFailure counts a wrong password and reports whether it blocked the account.
func (s *service) recordFailure(ctx context.Context, tx *gorm.DB, repo *users.Repository, user *models.User) (bool, error) {
	count := user.FailedLoginCount + 1
	blocked := count >= s.lockoutCfg.MaxFailedAttempts

	if err := repo.RecordFailedLogin(ctx, user.ID, count, blocked); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record failed login")
	}
	if err := s.audit.Record(ctx, tx, &user.ID, enums.AuditActionLoginFailed); err != nil {
		return false, err
	}
	return blocked, nil
}

func (s *service) recordSuccess(ctx context.Context, tx *gorm.DB, repo *users.Repository, user *models.User) (*LoginResponse, error) {
	now := s.now()
	previous := user.LastLoginAt

	if err := repo.RecordSuccessfulLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record login")
	}
	if err := s.audit.Record(ctx, tx, &user.ID, enums.AuditActionLoginSucceeded); err != nil {
		return nil, err
	}

	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	user.FailedLoginCount = 0
	user.Blocked = false
	user.LastLoginAt = &now

	return &LoginResponse{
		Message:     fmt.Sprintf("Bem-vindo, %s!", user.Name),
		AccessToken: token,
		ExpiresAt:   now.Add(s.jwtCfg.TTL()),
		LastLoginAt: previous,
		User:        users.FromModel(user),
	}, nil
}

// ChangePassword replaces the caller's credential after verifying the current
// one. A wrong current password is audited and the audit entry is kept.
func (s *service) ChangePassword(ctx context.Context, userID uint, req ChangePasswordRequest) (*PasswordChangedDTO, error) {
	if err := security.ValidatePasswordPolicy(req.NewPassword); err != nil {
		return nil, policyError(err)
	}

	var (
		dto      *PasswordChangedDTO
		rejected error
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)

		user, err := repo.FindByIDForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}
		if !user.HasCredential() {
			return pkgerrors.New(pkgerrors.CodeNotFound, "credential not found")
		}

		valid, err := security.VerifyPassword(req.CurrentPassword, *user.PasswordHash)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
		}
		if !valid {
			if err := s.audit.Record(ctx, tx, &user.ID, enums.AuditActionPasswordChangeFailed); err != nil {
				return err
			}
			rejected = pkgerrors.New(pkgerrors.CodeUnauthorized, "current password is incorrect")
			return nil
		}

		hash, err := security.HashPassword(req.NewPassword, s.passwordCfg)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		if err := repo.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
		}
		if err := s.audit.Record(ctx, tx, &user.ID, enums.AuditActionPasswordChanged); err != nil {
			return err
		}

		dto = &PasswordChangedDTO{ID: user.ID, Email: user.Email}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if rejected != nil {
		return nil, rejected
	}
	return dto, nil
}

func policyError(err error) error {
	var policy *security.PolicyError
	if errors.As(err, &policy) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "password does not meet policy").
			WithDetails(map[string]any{"password": policy.Violations})
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid password")
}
