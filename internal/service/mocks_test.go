package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"mailforge/internal/model"
	"mailforge/internal/repository"
)

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, account *model.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) Update(ctx context.Context, account *model.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockAccountRepository) List(ctx context.Context, filter repository.AccountFilter) ([]model.Account, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Account), args.Get(1).(int64), args.Error(2)
}

func (m *MockAccountRepository) Stats(ctx context.Context) (repository.AccountStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(repository.AccountStats), args.Error(1)
}

func (m *MockAccountRepository) Recent(ctx context.Context, limit int) ([]model.Account, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Account), args.Error(1)
}

// MockTemplateRepository is a mock implementation of TemplateRepository.
type MockTemplateRepository struct {
	mock.Mock
}

func (m *MockTemplateRepository) Create(ctx context.Context, template *model.Template) error {
	args := m.Called(ctx, template)
	return args.Error(0)
}

func (m *MockTemplateRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Template, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Template), args.Error(1)
}

func (m *MockTemplateRepository) Update(ctx context.Context, template *model.Template, columns ...string) error {
	args := m.Called(ctx, template, columns)
	return args.Error(0)
}

func (m *MockTemplateRepository) List(ctx context.Context, query repository.TemplateQuery) ([]model.Template, int64, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Template), args.Get(1).(int64), args.Error(2)
}

func (m *MockTemplateRepository) ToggleFavorite(ctx context.Context, templateID, accountID uuid.UUID) (bool, int, error) {
	args := m.Called(ctx, templateID, accountID)
	return args.Bool(0), args.Int(1), args.Error(2)
}

func (m *MockTemplateRepository) UpsertRating(ctx context.Context, rating *model.TemplateRating) error {
	args := m.Called(ctx, rating)
	return args.Error(0)
}

func (m *MockTemplateRepository) RatingStats(ctx context.Context, templateID uuid.UUID) (repository.RatingStats, error) {
	args := m.Called(ctx, templateID)
	return args.Get(0).(repository.RatingStats), args.Error(1)
}

func (m *MockTemplateRepository) Stats(ctx context.Context) (repository.TemplateStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(repository.TemplateStats), args.Error(1)
}

func (m *MockTemplateRepository) Recent(ctx context.Context, limit int) ([]model.Template, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Template), args.Error(1)
}
