package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"mailforge/internal/model"
)

// AccountFilter selects a page of accounts.
type AccountFilter struct {
	Search string
	Role   model.Role
	Active *bool
	Offset int
	Limit  int
}

// AccountStats holds account counters for the admin dashboard.
type AccountStats struct {
	Total  int64
	Active int64
	Admins int64
}

// AccountRepository defines account persistence operations.
type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	Update(ctx context.Context, account *model.Account) error
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	List(ctx context.Context, filter AccountFilter) ([]model.Account, int64, error)
	Stats(ctx context.Context) (AccountStats, error)
	Recent(ctx context.Context, limit int) ([]model.Account, error)
}

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository.
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

// Create creates a new account.
func (r *accountRepository) Create(ctx context.Context, account *model.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

// Update saves every field of an existing account.
func (r *accountRepository) Update(ctx context.Context, account *model.Account) error {
	return r.db.WithContext(ctx).Save(account).Error
}

// UpdateFields updates the given columns only.
func (r *accountRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Account{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// FindByID finds an account by ID.
func (r *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	var account model.Account
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByEmail finds an account by its normalized email.
func (r *accountRepository) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	var account model.Account
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// List returns a page of accounts matching filter plus the total match count.
func (r *accountRepository) List(ctx context.Context, filter AccountFilter) ([]model.Account, int64, error) {
	scope := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&model.Account{})
		if filter.Search != "" {
			pattern := likePattern(filter.Search)
			q = q.Where("(LOWER(name) LIKE ? OR LOWER(email) LIKE ?)", pattern, pattern)
		}
		if filter.Role != "" {
			q = q.Where("role = ?", filter.Role)
		}
		if filter.Active != nil {
			q = q.Where("active = ?", *filter.Active)
		}
		return q
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	accounts := make([]model.Account, 0)
	if total == 0 {
		return accounts, 0, nil
	}
	if err := scope().Order("created_at DESC").Offset(filter.Offset).Limit(filter.Limit).Find(&accounts).Error; err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

// Stats counts all, active and admin accounts.
func (r *accountRepository) Stats(ctx context.Context) (AccountStats, error) {
	var stats AccountStats
	db := r.db.WithContext(ctx).Model(&model.Account{})
	if err := db.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return stats, err
	}
	if err := db.Session(&gorm.Session{}).Where("active = ?", true).Count(&stats.Active).Error; err != nil {
		return stats, err
	}
	if err := db.Session(&gorm.Session{}).Where("role = ?", model.RoleAdmin).Count(&stats.Admins).Error; err != nil {
		return stats, err
	}
	return stats, nil
}

// Recent returns the newest accounts.
func (r *accountRepository) Recent(ctx context.Context, limit int) ([]model.Account, error) {
	accounts := make([]model.Account, 0, limit)
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}
