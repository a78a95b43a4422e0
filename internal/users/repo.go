package users

import (
	"context"
	"time"

	"github.com/angelmondragon/partshop-backend/internal/repo"
	"github.com/angelmondragon/partshop-backend/pkg/db"
	"github.com/angelmondragon/partshop-backend/pkg/db/models"
	"github.com/angelmondragon/partshop-backend/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmailForUpdate loads the user by email holding a row lock until the
// surrounding transaction ends.
func (r *Repository) FindByEmailForUpdate(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := db.ForUpdate(r.db.WithContext(ctx)).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by id.
func (r *Repository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDForUpdate loads a user by id holding a row lock.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := db.ForUpdate(r.db.WithContext(ctx)).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns users newest first, one row past the page size.
func (r *Repository) List(ctx context.Context, params pagination.Params, cursor *pagination.Cursor) ([]models.User, error) {
	var rows []models.User
	if err := r.db.WithContext(ctx).
		Scopes(repo.Keyset("id", params, cursor)).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateProfile writes the provided column changes.
func (r *Repository) UpdateProfile(ctx context.Context, id uint, changes map[string]any) error {
	if len(changes) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(changes).Error
}

// RecordFailedLogin stores the new failure count and blocked flag.
func (r *Repository) RecordFailedLogin(ctx context.Context, id uint, count int, blocked bool) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"failed_login_count": count,
			"blocked":            blocked,
		}).Error
}

// RecordSuccessfulLogin clears the lockout state and stamps last_login_at.
func (r *Repository) RecordSuccessfulLogin(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"failed_login_count": 0,
			"blocked":            false,
			"last_login_at":      at,
		}).Error
}

// ResetLockout clears the failure count and unblocks the account.
func (r *Repository) ResetLockout(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"failed_login_count": 0,
			"blocked":            false,
		}).Error
}

// UpdatePasswordHash replaces the stored credential.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id uint, hash string) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("password_hash", hash).Error
}

// DebitBalance subtracts amount when the balance covers it. It returns the
// number of rows changed; zero means the user is gone or the funds are short.
func (r *Repository) DebitBalance(ctx context.Context, id uint, amount decimal.Decimal) (int64, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE users SET balance = balance - ? WHERE id = ? AND balance >= ?`,
		amount, id, amount,
	)
	return res.RowsAffected, res.Error
}

// CreditBalance adds amount to the balance and returns the rows changed.
func (r *Repository) CreditBalance(ctx context.Context, id uint, amount decimal.Decimal) (int64, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE users SET balance = balance + ? WHERE id = ?`,
		amount, id,
	)
	return res.RowsAffected, res.Error
}

// Delete removes the user row. Orders and audit rows keep a null owner.
func (r *Repository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	return res.RowsAffected, res.Error
}
