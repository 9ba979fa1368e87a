package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mailforge/internal/model"
)

// Sortable template columns.
const (
	SortCreatedAt     = "created_at"
	SortUpdatedAt     = "updated_at"
	SortName          = "name"
	SortRating        = "rating"
	SortFavoriteCount = "favorite_count"
)

var sortableColumns = map[string]bool{
	SortCreatedAt:     true,
	SortUpdatedAt:     true,
	SortName:          true,
	SortRating:        true,
	SortFavoriteCount: true,
}

// TemplateFilter narrows a template query. Zero values do not filter.
type TemplateFilter struct {
	Category  string
	Search    string
	IsPublic  *bool
	IsPremium *bool
	OwnerID   *uuid.UUID
	// VisibleTo limits results to public templates or templates owned by this account.
	VisibleTo       *uuid.UUID
	FavoritedBy     *uuid.UUID
	IncludeInactive bool
}

// TemplateQuery is a filtered, sorted page request.
type TemplateQuery struct {
	Filter     TemplateFilter
	Offset     int
	Limit      int
	SortColumn string
	Descending bool
}

// RatingStats is the aggregate of all ratings for one template.
type RatingStats struct {
	Average decimal.Decimal
	Count   int64
}

// TemplateStats holds template counters for the admin dashboard.
type TemplateStats struct {
	Total   int64
	Public  int64
	Premium int64
}

// TemplateRepository defines template persistence operations.
type TemplateRepository interface {
	Create(ctx context.Context, template *model.Template) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Template, error)
	Update(ctx context.Context, template *model.Template, columns ...string) error
	List(ctx context.Context, query TemplateQuery) ([]model.Template, int64, error)
	ToggleFavorite(ctx context.Context, templateID, accountID uuid.UUID) (favorited bool, count int, err error)
	UpsertRating(ctx context.Context, rating *model.TemplateRating) error
	RatingStats(ctx context.Context, templateID uuid.UUID) (RatingStats, error)
	Stats(ctx context.Context) (TemplateStats, error)
	Recent(ctx context.Context, limit int) ([]model.Template, error)
}

type templateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository creates a new template repository.
func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

// Create creates a new template.
func (r *templateRepository) Create(ctx context.Context, template *model.Template) error {
	return r.db.WithContext(ctx).Create(template).Error
}

// FindByID finds a template by ID regardless of its active flag.
func (r *templateRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Template, error) {
	var template model.Template
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&template).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

// Update writes the named columns of template, including false and empty values.
// updated_at is always refreshed.
func (r *templateRepository) Update(ctx context.Context, template *model.Template, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(template).
		Select(columns).
		Updates(template).Error
}

func (r *templateRepository) filtered(ctx context.Context, f TemplateFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Template{})
	if !f.IncludeInactive {
		q = q.Where("active = ?", true)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Search != "" {
		pattern := likePattern(f.Search)
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(subject) LIKE ?)", pattern, pattern)
	}
	if f.IsPublic != nil {
		q = q.Where("is_public = ?", *f.IsPublic)
	}
	if f.IsPremium != nil {
		q = q.Where("is_premium = ?", *f.IsPremium)
	}
	if f.OwnerID != nil {
		q = q.Where("owner_id = ?", *f.OwnerID)
	}
	if f.VisibleTo != nil {
		q = q.Where("(is_public = ? OR owner_id = ?)", true, *f.VisibleTo)
	}
	if f.FavoritedBy != nil {
		favorites := r.db.WithContext(ctx).Model(&model.TemplateFavorite{}).
			Select("template_id").
			Where("account_id = ?", *f.FavoritedBy)
		q = q.Where("id IN (?)", favorites)
	}
	return q
}

// List returns a page of templates matching the query plus the total match count.
func (r *templateRepository) List(ctx context.Context, query TemplateQuery) ([]model.Template, int64, error) {
	var total int64
	if err := r.filtered(ctx, query.Filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	templates := make([]model.Template, 0)
	if total == 0 || int64(query.Offset) >= total {
		return templates, total, nil
	}

	column := query.SortColumn
	if !sortableColumns[column] {
		column = SortCreatedAt
	}

	err := r.filtered(ctx, query.Filter).
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: query.Descending}).
		Order("id").
		Offset(query.Offset).
		Limit(query.Limit).
		Find(&templates).Error
	if err != nil {
		return nil, 0, err
	}
	return templates, total, nil
}

// ToggleFavorite flips the account's favorite membership and returns the new state and count.
func (r *templateRepository) ToggleFavorite(ctx context.Context, templateID, accountID uuid.UUID) (bool, int, error) {
	var (
		favorited bool
		count     int
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("template_id = ? AND account_id = ?", templateID, accountID).
			Delete(&model.TemplateFavorite{})
		if res.Error != nil {
			return res.Error
		}

		delta := -1
		if res.RowsAffected == 0 {
			fav := &model.TemplateFavorite{TemplateID: templateID, AccountID: accountID}
			if err := tx.Create(fav).Error; err != nil {
				return err
			}
			favorited = true
			delta = 1
		}

		if err := tx.Model(&model.Template{}).
			Where("id = ?", templateID).
			UpdateColumn("favorite_count", gorm.Expr("GREATEST(favorite_count + ?, 0)", delta)).Error; err != nil {
			return err
		}

		var current model.Template
		if err := tx.Select("favorite_count").Where("id = ?", templateID).First(&current).Error; err != nil {
			return err
		}
		count = current.FavoriteCount
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	return favorited, count, nil
}

// UpsertRating records the account's rating, overwriting an earlier one.
func (r *templateRepository) UpsertRating(ctx context.Context, rating *model.TemplateRating) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "template_id"}, {Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(rating).Error
}

// RatingStats returns the mean and number of ratings for a template.
func (r *templateRepository) RatingStats(ctx context.Context, templateID uuid.UUID) (RatingStats, error) {
	var row struct {
		Average decimal.Decimal
		Count   int64
	}
	err := r.db.WithContext(ctx).Model(&model.TemplateRating{}).
		Select("COALESCE(AVG(value), 0) AS average, COUNT(*) AS count").
		Where("template_id = ?", templateID).
		Scan(&row).Error
	if err != nil {
		return RatingStats{}, err
	}
	return RatingStats{Average: row.Average, Count: row.Count}, nil
}

// Stats counts active, public and premium templates.
func (r *templateRepository) Stats(ctx context.Context) (TemplateStats, error) {
	var stats TemplateStats
	db := r.db.WithContext(ctx).Model(&model.Template{}).Where("active = ?", true)
	if err := db.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return stats, err
	}
	if err := db.Session(&gorm.Session{}).Where("is_public = ?", true).Count(&stats.Public).Error; err != nil {
		return stats, err
	}
	if err := db.Session(&gorm.Session{}).Where("is_premium = ?", true).Count(&stats.Premium).Error; err != nil {
		return stats, err
	}
	return stats, nil
}

// Recent returns the newest active templates.
func (r *templateRepository) Recent(ctx context.Context, limit int) ([]model.Template, error) {
	templates := make([]model.Template, 0, limit)
	if err := r.db.WithContext(ctx).Where("active = ?", true).
		Order("created_at DESC").Limit(limit).Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}
