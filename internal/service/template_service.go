package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mailforge/internal/auth"
	apperrors "mailforge/internal/errors"
	"mailforge/internal/model"
	"mailforge/internal/repository"
)

const (
	maxNameLength     = 255
	maxSubjectLength  = 500
	maxCategoryLength = 100
	maxTags           = 20
	minRating         = 1
	maxRating         = 5
	cloneSuffix       = " (Copy)"
)

// TemplateInput carries the fields of a new template.
type TemplateInput struct {
	Name       string            `json:"name" validate:"required,max=255"`
	Subject    string            `json:"subject" validate:"max=500"`
	Category   string            `json:"category" validate:"max=100"`
	Tags       []string          `json:"tags" validate:"max=20"`
	Components []model.Component `json:"components"`
	IsPublic   bool              `json:"isPublic"`
	IsPremium  bool              `json:"isPremium"`
}

// TemplateUpdate is a partial update. Nil fields are left unchanged.
type TemplateUpdate struct {
	Name       *string            `json:"name" validate:"omitempty,max=255"`
	Subject    *string            `json:"subject" validate:"omitempty,max=500"`
	Category   *string            `json:"category" validate:"omitempty,max=100"`
	Tags       *[]string          `json:"tags"`
	Components *[]model.Component `json:"components"`
	IsPublic   *bool              `json:"isPublic"`
	IsPremium  *bool              `json:"isPremium"`
}

// FavoriteResult is the caller's favorite state after a toggle.
type FavoriteResult struct {
	TemplateID    uuid.UUID `json:"templateId"`
	Favorited     bool      `json:"favorited"`
	FavoriteCount int       `json:"favoriteCount"`
}

// RatingResult is the template aggregate after a rating was recorded.
type RatingResult struct {
	TemplateID  uuid.UUID       `json:"templateId"`
	Rating      decimal.Decimal `json:"rating"`
	RatingCount int             `json:"ratingCount"`
	UserRating  int             `json:"userRating"`
}

// TemplateService handles template queries and mutations.
type TemplateService interface {
	List(ctx context.Context, principal *auth.Principal, params ListParams) (*model.TemplatePage, error)
	MyTemplates(ctx context.Context, principal *auth.Principal, params ListParams) (*model.TemplatePage, error)
	Favorites(ctx context.Context, principal *auth.Principal, params ListParams) (*model.TemplatePage, error)
	AdminList(ctx context.Context, params ListParams) (*model.TemplatePage, error)

	Get(ctx context.Context, principal *auth.Principal, id uuid.UUID) (*model.Template, error)
	AdminGet(ctx context.Context, id uuid.UUID) (*model.Template, error)
	Preview(ctx context.Context, principal *auth.Principal, id uuid.UUID) (*Preview, error)

	Create(ctx context.Context, principal *auth.Principal, input TemplateInput) (*model.Template, error)
	AdminCreate(ctx context.Context, principal *auth.Principal, input TemplateInput) (*model.Template, error)
	Update(ctx context.Context, principal *auth.Principal, id uuid.UUID, update TemplateUpdate) (*model.Template, error)
	Delete(ctx context.Context, principal *auth.Principal, id uuid.UUID) error
	Clone(ctx context.Context, principal *auth.Principal, id uuid.UUID) (*model.Template, error)
	ToggleFavorite(ctx context.Context, principal *auth.Principal, id uuid.UUID) (*FavoriteResult, error)
	Rate(ctx context.Context, principal *auth.Principal, id uuid.UUID, value int) (*RatingResult, error)
}

type templateService struct {
	repo     repository.TemplateRepository
	renderer *PreviewRenderer
	logger   *zap.Logger
	pages    PageLimits
}

// NewTemplateService creates a new template service.
func NewTemplateService(
	repo repository.TemplateRepository,
	renderer *PreviewRenderer,
	logger *zap.Logger,
	pages PageLimits,
) TemplateService {
	return &templateService{
		repo:     repo,
		renderer: renderer,
		logger:   logger,
		pages:    pages,
	}
}

// List returns active templates visible to the caller: public ones plus the
// caller's own. Administrators see every active template.
func (s *templateService) List(ctx context.Context, principal *auth.Principal, params ListParams) (*model.TemplatePage, error) {
	filter := baseFilter(params)
	switch {
	case principal == nil:
		public := true
		filter.IsPublic = &public
	case !principal.IsAdmin():
		filter.VisibleTo = &principal.AccountID
	}
	return s.page(ctx, params, filter)
}

// MyTemplates returns the caller's own active templates.
func (s *templateService) MyTemplates(ctx context.Context, principal *auth.Principal, params ListParams) (*model.TemplatePage, error) {
	if principal == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	filter := baseFilter(params)
	filter.OwnerID = &principal.AccountID
	return s.page(ctx, params, filter)
}

// Favorites returns the visible active templates the caller marked as favorite.
func (s *templateService) Favorites(ctx context.Context, principal *auth.Principal, params ListParams) (*model.TemplatePage, error) {
	if principal == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	filter := baseFilter(params)
	filter.FavoritedBy = &principal.AccountID
	if !principal.IsAdmin() {
		filter.VisibleTo = &principal.AccountID
	}
	return s.page(ctx, params, filter)
}

// AdminList returns templates of every owner, including soft-deleted ones on request.
func (s *templateService) AdminList(ctx context.Context, params ListParams) (*model.TemplatePage, error) {
	filter := baseFilter(params)
	filter.IncludeInactive = params.IncludeInactive
	return s.page(ctx, params, filter)
}

func baseFilter(params ListParams) repository.TemplateFilter {
	return repository.TemplateFilter{
		Category:  strings.TrimSpace(params.Category),
		Search:    strings.TrimSpace(params.Search),
		IsPublic:  params.IsPublic,
		IsPremium: params.IsPremium,
	}
}

func (s *templateService) page(ctx context.Context, params ListParams, filter repository.TemplateFilter) (*model.TemplatePage, error) {
	req := NormalizeListParams(params, s.pages)

	templates, total, err := s.repo.List(ctx, repository.TemplateQuery{
		Filter:     filter,
		Offset:     req.Offset,
		Limit:      req.Limit,
		SortColumn: req.SortColumn,
		Descending: req.Descending,
	})
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	return &model.TemplatePage{
		Templates:  templates,
		Pagination: model.NewPagination(req.Page, req.Limit, total),
	}, nil
}

// Get returns an active template. Private templates resolve only for their
// owner or an administrator and read as missing to everyone else.
func (s *templateService) Get(ctx context.Context, principal *auth.Principal, id uuid.UUID) (*model.Template, error) {
	return s.visible(ctx, principal, id)
}

// AdminGet returns a template by ID, including soft-deleted ones.
func (s *templateService) AdminGet(ctx context.Context, id uuid.UUID) (*model.Template, error) {
	return s.find(ctx, id)
}

// Preview renders a visible template to a sanitized HTML body.
func (s *templateService) Preview(ctx context.Context, principal *auth.Principal, id uuid.UUID) (*Preview, error) {
	template, err := s.visible(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	return s.renderer.Render(template), nil
}

// Create stores a new template owned by the caller.
func (s *templateService) Create(ctx context.Context, principal *auth.Principal, input TemplateInput) (*model.Template, error) {
	return s.create(ctx, principal, input, false)
}

// AdminCreate stores a new template from the admin surface. Such templates are always public.
func (s *templateService) AdminCreate(ctx context.Context, principal *auth.Principal, input TemplateInput) (*model.Template, error) {
	return s.create(ctx, principal, input, true)
}

func (s *templateService) create(ctx context.Context, principal *auth.Principal, input TemplateInput, forcePublic bool) (*model.Template, error) {
	if principal == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	if input.IsPremium && !principal.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	input, err := NormalizeTemplateInput(input)
	if err != nil {
		return nil, err
	}

	template := &model.Template{
		Name:       input.Name,
		Subject:    input.Subject,
		OwnerID:    principal.AccountID,
		IsPublic:   input.IsPublic || forcePublic,
		IsPremium:  input.IsPremium,
		Category:   input.Category,
		Tags:       input.Tags,
		Components: input.Components,
		Active:     true,
		Rating:     decimal.Zero,
	}
	if err := s.repo.Create(ctx, template); err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}

	s.logger.Info("template created",
		zap.String("template_id", template.ID.String()),
		zap.String("owner_id", template.OwnerID.String()),
	)
	return template, nil
}

// Update applies a partial update. Only the owner or an administrator may
// update, and only administrators may change the premium flag.
func (s *templateService) Update(ctx context.Context, principal *auth.Principal, id uuid.UUID, update TemplateUpdate) (*model.Template, error) {
	if principal == nil {
		return nil, apperrors.ErrUnauthenticated
	}

	template, err := s.active(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.CanModify(template.OwnerID) {
		return nil, apperrors.ErrForbidden
	}
	if update.IsPremium != nil && *update.IsPremium != template.IsPremium && !principal.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	var columns []string
	if update.Name != nil {
		name, err := validateName(*update.Name)
		if err != nil {
			return nil, err
		}
		template.Name = name
		columns = append(columns, "name")
	}
	if update.Subject != nil {
		subject, err := validateSubject(*update.Subject)
		if err != nil {
			return nil, err
		}
		template.Subject = subject
		columns = append(columns, "subject")
	}
	if update.Category != nil {
		category, err := validateCategory(*update.Category)
		if err != nil {
			return nil, err
		}
		template.Category = category
		columns = append(columns, "category")
	}
	if update.Tags != nil {
		tags, err := normalizeTags(*update.Tags)
		if err != nil {
			return nil, err
		}
		template.Tags = tags
		columns = append(columns, "tags")
	}
	if update.Components != nil {
		template.Components = components(*update.Components)
		columns = append(columns, "components")
	}
	if update.IsPublic != nil {
		template.IsPublic = *update.IsPublic
		columns = append(columns, "is_public")
	}
	if update.IsPremium != nil {
		template.IsPremium = *update.IsPremium
		columns = append(columns, "is_premium")
	}
	if len(columns) == 0 {
		return template, nil
	}

	if err := s.repo.Update(ctx, template, columns...); err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}

	s.logger.Info("template updated",
		zap.String("template_id", template.ID.String()),
		zap.Strings("columns", columns),
		zap.String("by", principal.AccountID.String()),
	)
	return template, nil
}

// Delete soft-deletes a template. Favorites and ratings are kept.
func (s *templateService) Delete(ctx context.Context, principal *auth.Principal, id uuid.UUID) error {
	if principal == nil {
		return apperrors.ErrUnauthenticated
	}

	template, err := s.active(ctx, id)
	if err != nil {
		return err
	}
	if !principal.CanModify(template.OwnerID) {
		return apperrors.ErrForbidden
	}

	template.Active = false
	if err := s.repo.Update(ctx, template, "active"); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}

	s.logger.Info("template deleted",
		zap.String("template_id", template.ID.String()),
		zap.String("by", principal.AccountID.String()),
	)
	return nil
}

// Clone copies a visible template into a new private template owned by the caller.
func (s *templateService) Clone(ctx context.Context, principal *auth.Principal, id uuid.UUID) (*model.Template, error) {
	if principal == nil {
		return nil, apperrors.ErrUnauthenticated
	}

	source, err := s.visible(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	clone := &model.Template{
		Name:       cloneName(source.Name),
		Subject:    source.Subject,
		OwnerID:    principal.AccountID,
		IsPublic:   false,
		IsPremium:  false,
		Category:   source.Category,
		Tags:       append([]string{}, source.Tags...),
		Components: append([]model.Component{}, source.Components...),
		Active:     true,
		Rating:     decimal.Zero,
	}
	if err := s.repo.Create(ctx, clone); err != nil {
		return nil, fmt.Errorf("clone template: %w", err)
	}

	s.logger.Info("template cloned",
		zap.String("source_id", source.ID.String()),
		zap.String("template_id", clone.ID.String()),
		zap.String("owner_id", clone.OwnerID.String()),
	)
	return clone, nil
}

// ToggleFavorite flips the caller's favorite mark on a visible template.
func (s *templateService) ToggleFavorite(ctx context.Context, principal *auth.Principal, id uuid.UUID) (*FavoriteResult, error) {
	if principal == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	if _, err := s.visible(ctx, principal, id); err != nil {
		return nil, err
	}

	favorited, count, err := s.repo.ToggleFavorite(ctx, id, principal.AccountID)
	if err != nil {
		return nil, fmt.Errorf("toggle favorite: %w", err)
	}
	return &FavoriteResult{TemplateID: id, Favorited: favorited, FavoriteCount: count}, nil
}

// Rate records the caller's rating and recomputes the template's mean rating.
func (s *templateService) Rate(ctx context.Context, principal *auth.Principal, id uuid.UUID, value int) (*RatingResult, error) {
	if principal == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	if value < minRating || value > maxRating {
		return nil, apperrors.Validation("rating must be between %d and %d", minRating, maxRating)
	}

	template, err := s.visible(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	rating := &model.TemplateRating{
		TemplateID: template.ID,
		AccountID:  principal.AccountID,
		Value:      value,
	}
	if err := s.repo.UpsertRating(ctx, rating); err != nil {
		return nil, fmt.Errorf("record rating: %w", err)
	}

	stats, err := s.repo.RatingStats(ctx, template.ID)
	if err != nil {
		return nil, fmt.Errorf("rating stats: %w", err)
	}

	template.Rating = stats.Average.Round(2)
	template.RatingCount = int(stats.Count)
	if err := s.repo.Update(ctx, template, "rating", "rating_count"); err != nil {
		return nil, fmt.Errorf("update rating: %w", err)
	}

	return &RatingResult{
		TemplateID:  template.ID,
		Rating:      template.Rating,
		RatingCount: template.RatingCount,
		UserRating:  value,
	}, nil
}

func (s *templateService) find(ctx context.Context, id uuid.UUID) (*model.Template, error) {
	template, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("find template: %w", err)
	}
	return template, nil
}

func (s *templateService) active(ctx context.Context, id uuid.UUID) (*model.Template, error) {
	template, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !template.Active {
		return nil, apperrors.ErrNotFound
	}
	return template, nil
}

func (s *templateService) visible(ctx context.Context, principal *auth.Principal, id uuid.UUID) (*model.Template, error) {
	template, err := s.active(ctx, id)
	if err != nil {
		return nil, err
	}
	if !template.IsPublic && !principal.CanModify(template.OwnerID) {
		return nil, apperrors.ErrNotFound
	}
	return template, nil
}

// NormalizeTemplateInput trims and bounds the descriptive fields of a new
// template. An empty category becomes the default and nil slices become empty.
func NormalizeTemplateInput(input TemplateInput) (TemplateInput, error) {
	var err error
	if input.Name, err = validateName(input.Name); err != nil {
		return TemplateInput{}, err
	}
	if input.Subject, err = validateSubject(input.Subject); err != nil {
		return TemplateInput{}, err
	}
	if input.Category, err = validateCategory(input.Category); err != nil {
		return TemplateInput{}, err
	}
	if input.Tags, err = normalizeTags(input.Tags); err != nil {
		return TemplateInput{}, err
	}
	input.Components = components(input.Components)
	return input, nil
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.Validation("name is required")
	}
	if len([]rune(name)) > maxNameLength {
		return "", apperrors.Validation("name must be at most %d characters", maxNameLength)
	}
	return name, nil
}

func validateSubject(subject string) (string, error) {
	subject = strings.TrimSpace(subject)
	if len([]rune(subject)) > maxSubjectLength {
		return "", apperrors.Validation("subject must be at most %d characters", maxSubjectLength)
	}
	return subject, nil
}

func validateCategory(category string) (string, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return model.DefaultCategory, nil
	}
	if len([]rune(category)) > maxCategoryLength {
		return "", apperrors.Validation("category must be at most %d characters", maxCategoryLength)
	}
	return category, nil
}

// normalizeTags trims tags and drops empty and repeated ones, keeping first-seen order.
func normalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	if len(out) > maxTags {
		return nil, apperrors.Validation("at most %d tags are allowed", maxTags)
	}
	return out, nil
}

func components(in []model.Component) []model.Component {
	if in == nil {
		return []model.Component{}
	}
	return in
}

func cloneName(name string) string {
	runes := []rune(name)
	if room := maxNameLength - len([]rune(cloneSuffix)); len(runes) > room {
		runes = runes[:room]
	}
	return string(runes) + cloneSuffix
}
