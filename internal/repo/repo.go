package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/finportal/internal/models"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
)

// GormRepo is the account store backing authentication.
type GormRepo struct {
	DB *gorm.DB
}

func NewGormRepo(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

func (r *GormRepo) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	const op = "repo.FindByEmail"

	var account models.Account
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &account, nil
}

func (r *GormRepo) Exists(ctx context.Context, email string) (bool, error) {
	const op = "repo.Exists"

	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Account{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return count > 0, nil
}

// CreateIfNotExists inserts a unless an account with the same email exists,
// in which case ErrAccountExists is returned.
func (r *GormRepo) CreateIfNotExists(ctx context.Context, a *models.Account) error {
	const op = "repo.CreateIfNotExists"

	tx := r.DB.WithContext(ctx).Where("email = ?", a.Email).FirstOrCreate(a)
	if tx.Error != nil {
		return fmt.Errorf("%s: %w", op, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrAccountExists
	}
	return nil
}

func (r *GormRepo) UpdatePasswordHash(ctx context.Context, email, passwordHash string) error {
	const op = "repo.UpdatePasswordHash"

	tx := r.DB.WithContext(ctx).Model(&models.Account{}).
		Where("email = ?", email).
		Update("password_hash", passwordHash)
	if tx.Error != nil {
		return fmt.Errorf("%s: %w", op, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *GormRepo) SetStatus(ctx context.Context, email string, enabled, active bool) error {
	const op = "repo.SetStatus"

	tx := r.DB.WithContext(ctx).Model(&models.Account{}).
		Where("email = ?", email).
		Updates(map[string]any{"enabled": enabled, "active": active})
	if tx.Error != nil {
		return fmt.Errorf("%s: %w", op, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *GormRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
