package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"mailforge/internal/auth"
	"mailforge/internal/cache"
	apperrors "mailforge/internal/errors"
	"mailforge/internal/model"
	"mailforge/internal/repository"
)

const (
	bcryptCost        = 10
	minPasswordLength = 6
)

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// AuthResult is an issued session for an account.
type AuthResult struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	Account   *model.Account `json:"user"`
}

// AuthService handles registration and login.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
}

type authService struct {
	accountRepo repository.AccountRepository
	codec       *auth.TokenCodec
	cache       *cache.Client
	logger      *zap.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(accountRepo repository.AccountRepository, codec *auth.TokenCodec, cache *cache.Client, logger *zap.Logger) AuthService {
	return &authService{
		accountRepo: accountRepo,
		codec:       codec,
		cache:       cache,
		logger:      logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account with the user role and issues a session for it.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)
	if name == "" {
		return nil, apperrors.Validation("name is required")
	}
	if email == "" {
		return nil, apperrors.Validation("email is required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, apperrors.Validation("password must be at least %d characters", minPasswordLength)
	}

	existing, err := s.accountRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, apperrors.ErrEmailTaken
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check account existence: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &model.Account{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         model.RoleUser,
		Active:       true,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrEmailTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.logger.Info("account registered", zap.String("account_id", account.ID.String()))
	return s.issue(account)
}

// Login verifies credentials, stamps the login time and issues a session.
func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	account, err := s.accountRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !account.Active {
		return nil, apperrors.ErrAccountDeactivated
	}

	now := time.Now().UTC()
	if err := s.accountRepo.UpdateFields(ctx, account.ID, map[string]interface{}{"last_login_at": now}); err != nil {
		return nil, fmt.Errorf("stamp last login: %w", err)
	}
	account.LastLoginAt = &now
	if err := s.cache.Delete(ctx, accountCacheKey(account.ID)); err != nil {
		s.logger.Warn("invalidate account cache",
			zap.String("account_id", account.ID.String()),
			zap.Error(err),
		)
	}

	return s.issue(account)
}

func (s *authService) issue(account *model.Account) (*AuthResult, error) {
	token, expiresAt, err := s.codec.Issue(account.ID, account.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{Token: token, ExpiresAt: expiresAt, Account: account}, nil
}
