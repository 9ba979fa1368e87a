package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mailforge/internal/auth"
	"mailforge/internal/cache"
	apperrors "mailforge/internal/errors"
	"mailforge/internal/model"
	"mailforge/internal/repository"
)

const (
	accountCacheTTL   = 5 * time.Minute
	dashboardCacheTTL = 30 * time.Second
	dashboardCacheKey = "admin:dashboard"
	dashboardRecent   = 5
)

func accountCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("account:%s", id.String())
}

// ProfileUpdate holds the fields an account may change on itself.
type ProfileUpdate struct {
	Name        *string            `json:"name" validate:"omitempty,max=255"`
	Preferences *model.Preferences `json:"preferences"`
}

// UserListParams selects a page of accounts for the admin listing.
type UserListParams struct {
	Page   int
	Limit  int
	Search string
	Role   model.Role
	Active *bool
}

// AccountService handles account lookups, profile changes and account administration.
type AccountService interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*model.Account, error)
	UpdateProfile(ctx context.Context, principal *auth.Principal, update ProfileUpdate) (*model.Account, error)
	ListUsers(ctx context.Context, params UserListParams) (*model.AccountPage, error)
	ChangeRole(ctx context.Context, principal *auth.Principal, id uuid.UUID, role model.Role) (*model.Account, error)
	SetActive(ctx context.Context, principal *auth.Principal, id uuid.UUID, active bool) (*model.Account, error)
	Dashboard(ctx context.Context) (*model.DashboardStats, error)
}

type accountService struct {
	repo         repository.AccountRepository
	templateRepo repository.TemplateRepository
	cache        *cache.Client
	logger       *zap.Logger
	pages        PageLimits
}

// NewAccountService creates a new account service.
func NewAccountService(
	repo repository.AccountRepository,
	templateRepo repository.TemplateRepository,
	cache *cache.Client,
	logger *zap.Logger,
	pages PageLimits,
) AccountService {
	return &accountService{
		repo:         repo,
		templateRepo: templateRepo,
		cache:        cache,
		logger:       logger,
		pages:        pages,
	}
}

// GetAccount retrieves an account by ID with caching.
func (s *accountService) GetAccount(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	var cached model.Account
	if s.cache.GetJSON(ctx, accountCacheKey(id), &cached) {
		return &cached, nil
	}

	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}

	s.cache.SetJSON(ctx, accountCacheKey(id), account, accountCacheTTL)
	return account, nil
}

// UpdateProfile changes the caller's own name and preferences.
func (s *accountService) UpdateProfile(ctx context.Context, principal *auth.Principal, update ProfileUpdate) (*model.Account, error) {
	if principal == nil {
		return nil, apperrors.ErrUnauthenticated
	}

	var name string
	if update.Name != nil {
		name = strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, apperrors.Validation("name cannot be empty")
		}
		if len([]rune(name)) > maxNameLength {
			return nil, apperrors.Validation("name must be at most %d characters", maxNameLength)
		}
	}

	account, err := s.load(ctx, principal.AccountID)
	if err != nil {
		return nil, err
	}
	if update.Name == nil && update.Preferences == nil {
		return account, nil
	}

	if update.Name != nil {
		account.Name = name
	}
	if update.Preferences != nil {
		account.Preferences = *update.Preferences
	}
	if err := s.repo.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.invalidate(ctx, account.ID)
	return account, nil
}

// ListUsers returns a page of accounts for administrators.
func (s *accountService) ListUsers(ctx context.Context, params UserListParams) (*model.AccountPage, error) {
	page, limit := s.pages.normalize(params.Page, params.Limit)

	accounts, total, err := s.repo.List(ctx, repository.AccountFilter{
		Search: strings.TrimSpace(params.Search),
		Role:   params.Role,
		Active: params.Active,
		Offset: (page - 1) * limit,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	return &model.AccountPage{
		Users:      accounts,
		Pagination: model.NewPagination(page, limit, total),
	}, nil
}

// ChangeRole sets the role of another account.
func (s *accountService) ChangeRole(ctx context.Context, principal *auth.Principal, id uuid.UUID, role model.Role) (*model.Account, error) {
	if !role.Valid() {
		return nil, apperrors.Validation("role must be %q or %q", model.RoleUser, model.RoleAdmin)
	}
	if principal != nil && principal.AccountID == id && !auth.CanAdminister(role) {
		return nil, apperrors.Validation("administrators cannot remove their own admin role")
	}

	account, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if account.Role == role {
		return account, nil
	}

	if err := s.repo.UpdateFields(ctx, id, map[string]interface{}{"role": role}); err != nil {
		return nil, fmt.Errorf("change role: %w", err)
	}
	account.Role = role

	s.invalidate(ctx, id)
	s.logger.Info("account role changed",
		zap.String("account_id", id.String()),
		zap.String("role", string(role)),
		zap.String("by", actorID(principal)),
	)
	return account, nil
}

// SetActive deactivates or reactivates another account.
func (s *accountService) SetActive(ctx context.Context, principal *auth.Principal, id uuid.UUID, active bool) (*model.Account, error) {
	if principal != nil && principal.AccountID == id && !active {
		return nil, apperrors.Validation("administrators cannot deactivate themselves")
	}

	account, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if account.Active == active {
		return account, nil
	}

	if err := s.repo.UpdateFields(ctx, id, map[string]interface{}{"active": active}); err != nil {
		return nil, fmt.Errorf("set account active: %w", err)
	}
	account.Active = active

	s.invalidate(ctx, id)
	s.logger.Info("account activation changed",
		zap.String("account_id", id.String()),
		zap.Bool("active", active),
		zap.String("by", actorID(principal)),
	)
	return account, nil
}

// Dashboard summarizes accounts and templates. The result is cached briefly.
func (s *accountService) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	var cached model.DashboardStats
	if s.cache.GetJSON(ctx, dashboardCacheKey, &cached) {
		return &cached, nil
	}

	accounts, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("account stats: %w", err)
	}
	templates, err := s.templateRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("template stats: %w", err)
	}
	recentUsers, err := s.repo.Recent(ctx, dashboardRecent)
	if err != nil {
		return nil, fmt.Errorf("recent accounts: %w", err)
	}
	recentTemplates, err := s.templateRepo.Recent(ctx, dashboardRecent)
	if err != nil {
		return nil, fmt.Errorf("recent templates: %w", err)
	}

	stats := &model.DashboardStats{
		TotalUsers:       accounts.Total,
		ActiveUsers:      accounts.Active,
		Admins:           accounts.Admins,
		TotalTemplates:   templates.Total,
		PublicTemplates:  templates.Public,
		PremiumTemplates: templates.Premium,
		RecentUsers:      recentUsers,
		RecentTemplates:  recentTemplates,
	}
	s.cache.SetJSON(ctx, dashboardCacheKey, stats, dashboardCacheTTL)
	return stats, nil
}

// load reads an account from the store, bypassing the cache.
func (s *accountService) load(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return account, nil
}

func actorID(principal *auth.Principal) string {
	if principal == nil {
		return ""
	}
	return principal.AccountID.String()
}

func (s *accountService) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Delete(ctx, accountCacheKey(id), dashboardCacheKey); err != nil {
		s.logger.Warn("invalidate account cache",
			zap.String("account_id", id.String()),
			zap.Error(err),
		)
	}
}
