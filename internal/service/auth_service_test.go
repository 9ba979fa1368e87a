package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"mailforge/internal/auth"
	apperrors "mailforge/internal/errors"
	"mailforge/internal/model"
)

func newTestAuthService(repo *MockAccountRepository) (AuthService, *auth.TokenCodec) {
	codec := auth.NewTokenCodec("test-secret", time.Hour)
	return NewAuthService(repo, codec, nil, zap.NewNop()), codec
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name          string
		input         RegisterInput
		setupMock     func(*MockAccountRepository)
		expectedError error
	}{
		{
			name:  "successful registration",
			input: RegisterInput{Name: "Test User", Email: " Test@Example.com ", Password: "password123"},
			setupMock: func(m *MockAccountRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.MatchedBy(func(a *model.Account) bool {
					return a.Email == "test@example.com" && a.Role == model.RoleUser && a.Active
				})).Run(func(args mock.Arguments) {
					args.Get(1).(*model.Account).ID = uuid.New()
				}).Return(nil)
			},
		},
		{
			name:  "email already registered",
			input: RegisterInput{Name: "Existing", Email: "existing@example.com", Password: "password123"},
			setupMock: func(m *MockAccountRepository) {
				m.On("FindByEmail", mock.Anything, "existing@example.com").Return(&model.Account{Email: "existing@example.com"}, nil)
			},
			expectedError: apperrors.ErrEmailTaken,
		},
		{
			name:          "password too short",
			input:         RegisterInput{Name: "Short", Email: "short@example.com", Password: "12345"},
			setupMock:     func(m *MockAccountRepository) {},
			expectedError: apperrors.ErrValidation,
		},
		{
			name:          "blank name",
			input:         RegisterInput{Name: "   ", Email: "blank@example.com", Password: "password123"},
			setupMock:     func(m *MockAccountRepository) {},
			expectedError: apperrors.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockAccountRepository)
			tt.setupMock(mockRepo)
			service, codec := newTestAuthService(mockRepo)

			result, err := service.Register(context.Background(), tt.input)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				require.NotNil(t, result)
				assert.Equal(t, "test@example.com", result.Account.Email)
				assert.Equal(t, "Test User", result.Account.Name)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(result.Account.PasswordHash), []byte("password123")))

				session, err := codec.Verify(result.Token)
				require.NoError(t, err)
				assert.Equal(t, result.Account.ID, session.AccountID)
				assert.Equal(t, model.RoleUser, session.Role)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name          string
		email         string
		password      string
		setupMock     func(*MockAccountRepository, uuid.UUID)
		expectedError error
	}{
		{
			name:     "successful login",
			email:    "Test@Example.com",
			password: "password123",
			setupMock: func(m *MockAccountRepository, id uuid.UUID) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(&model.Account{
					ID:           id,
					Email:        "test@example.com",
					PasswordHash: string(hashedPassword),
					Role:         model.RoleAdmin,
					Active:       true,
				}, nil)
				m.On("UpdateFields", mock.Anything, id, mock.MatchedBy(func(f map[string]interface{}) bool {
					_, ok := f["last_login_at"]
					return ok
				})).Return(nil)
			},
		},
		{
			name:     "unknown email",
			email:    "notfound@example.com",
			password: "password123",
			setupMock: func(m *MockAccountRepository, _ uuid.UUID) {
				m.On("FindByEmail", mock.Anything, "notfound@example.com").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			email:    "test@example.com",
			password: "wrong-password",
			setupMock: func(m *MockAccountRepository, id uuid.UUID) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(&model.Account{
					ID: id, PasswordHash: string(hashedPassword), Active: true,
				}, nil)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "deactivated account",
			email:    "test@example.com",
			password: "password123",
			setupMock: func(m *MockAccountRepository, id uuid.UUID) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(&model.Account{
					ID: id, PasswordHash: string(hashedPassword), Active: false,
				}, nil)
			},
			expectedError: apperrors.ErrAccountDeactivated,
		},
		{
			name:     "store failure",
			email:    "test@example.com",
			password: "password123",
			setupMock: func(m *MockAccountRepository, _ uuid.UUID) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, errors.New("connection refused"))
			},
			expectedError: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockAccountRepository)
			id := uuid.New()
			tt.setupMock(mockRepo, id)
			service, codec := newTestAuthService(mockRepo)

			result, err := service.Login(context.Background(), tt.email, tt.password)

			switch {
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, result)
			case tt.name == "store failure":
				assert.Error(t, err)
				assert.NotErrorIs(t, err, apperrors.ErrInvalidCredentials)
			default:
				require.NoError(t, err)
				require.NotNil(t, result.Account.LastLoginAt)
				session, err := codec.Verify(result.Token)
				require.NoError(t, err)
				assert.Equal(t, id, session.AccountID)
				assert.Equal(t, model.RoleAdmin, session.Role)
				assert.WithinDuration(t, time.Now().Add(time.Hour), result.ExpiresAt, time.Minute)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}
