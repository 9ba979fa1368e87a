package router

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"mailforge/internal/model"
	"mailforge/internal/repository"
)

// memoryStore backs both repository fakes so end-to-end tests run without MySQL.
type memoryStore struct {
	mu        sync.Mutex
	accounts  map[uuid.UUID]model.Account
	templates map[uuid.UUID]model.Template
	favorites map[[2]uuid.UUID]bool
	ratings   map[[2]uuid.UUID]int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		accounts:  make(map[uuid.UUID]model.Account),
		templates: make(map[uuid.UUID]model.Template),
		favorites: make(map[[2]uuid.UUID]bool),
		ratings:   make(map[[2]uuid.UUID]int),
	}
}

type memoryAccounts struct{ s *memoryStore }

func (r memoryAccounts) Create(_ context.Context, account *model.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.accounts {
		if existing.Email == account.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	now := time.Now().UTC()
	account.CreatedAt, account.UpdatedAt = now, now
	r.s.accounts[account.ID] = *account
	return nil
}

func (r memoryAccounts) Update(_ context.Context, account *model.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	account.UpdatedAt = time.Now().UTC()
	r.s.accounts[account.ID] = *account
	return nil
}

func (r memoryAccounts) UpdateFields(_ context.Context, id uuid.UUID, fields map[string]interface{}) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	account, ok := r.s.accounts[id]
	if !ok {
		return nil
	}
	for k, v := range fields {
		switch k {
		case "role":
			account.Role = v.(model.Role)
		case "active":
			account.Active = v.(bool)
		case "last_login_at":
			t := v.(time.Time)
			account.LastLoginAt = &t
		}
	}
	r.s.accounts[id] = account
	return nil
}

func (r memoryAccounts) FindByID(_ context.Context, id uuid.UUID) (*model.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	account, ok := r.s.accounts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &account, nil
}

func (r memoryAccounts) FindByEmail(_ context.Context, email string) (*model.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, account := range r.s.accounts {
		if account.Email == email {
			found := account
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memoryAccounts) List(_ context.Context, filter repository.AccountFilter) ([]model.Account, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]model.Account, 0)
	for _, account := range r.s.accounts {
		if filter.Search != "" && !strings.Contains(strings.ToLower(account.Name+" "+account.Email), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, account)
	}
	return page(out, filter.Offset, filter.Limit), int64(len(out)), nil
}

func (r memoryAccounts) Stats(_ context.Context) (repository.AccountStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var stats repository.AccountStats
	for _, account := range r.s.accounts {
		stats.Total++
		if account.Active {
			stats.Active++
		}
		if account.Role == model.RoleAdmin {
			stats.Admins++
		}
	}
	return stats, nil
}

func (r memoryAccounts) Recent(_ context.Context, limit int) ([]model.Account, error) {
	out, _, _ := r.List(context.Background(), repository.AccountFilter{Limit: limit})
	return out, nil
}

type memoryTemplates struct{ s *memoryStore }

func (r memoryTemplates) Create(_ context.Context, template *model.Template) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if template.ID == uuid.Nil {
		template.ID = uuid.New()
	}
	now := time.Now().UTC()
	template.CreatedAt, template.UpdatedAt = now, now
	r.s.templates[template.ID] = *template
	return nil
}

func (r memoryTemplates) FindByID(_ context.Context, id uuid.UUID) (*model.Template, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	template, ok := r.s.templates[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &template, nil
}

func (r memoryTemplates) Update(_ context.Context, template *model.Template, _ ...string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	template.UpdatedAt = time.Now().UTC()
	r.s.templates[template.ID] = *template
	return nil
}

func (r memoryTemplates) List(_ context.Context, query repository.TemplateQuery) ([]model.Template, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f := query.Filter
	out := make([]model.Template, 0)
	for _, t := range r.s.templates {
		switch {
		case !f.IncludeInactive && !t.Active:
		case f.Category != "" && t.Category != f.Category:
		case f.Search != "" && !strings.Contains(strings.ToLower(t.Name+" "+t.Subject), strings.ToLower(f.Search)):
		case f.IsPublic != nil && t.IsPublic != *f.IsPublic:
		case f.IsPremium != nil && t.IsPremium != *f.IsPremium:
		case f.OwnerID != nil && t.OwnerID != *f.OwnerID:
		case f.VisibleTo != nil && !t.IsPublic && t.OwnerID != *f.VisibleTo:
		case f.FavoritedBy != nil && !r.s.favorites[[2]uuid.UUID{t.ID, *f.FavoritedBy}]:
		default:
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, query.Offset, query.Limit), int64(len(out)), nil
}

func (r memoryTemplates) ToggleFavorite(_ context.Context, templateID, accountID uuid.UUID) (bool, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := [2]uuid.UUID{templateID, accountID}
	template := r.s.templates[templateID]
	if r.s.favorites[key] {
		delete(r.s.favorites, key)
		template.FavoriteCount--
	} else {
		r.s.favorites[key] = true
		template.FavoriteCount++
	}
	r.s.templates[templateID] = template
	return r.s.favorites[key], template.FavoriteCount, nil
}

func (r memoryTemplates) UpsertRating(_ context.Context, rating *model.TemplateRating) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.ratings[[2]uuid.UUID{rating.TemplateID, rating.AccountID}] = rating.Value
	return nil
}

func (r memoryTemplates) RatingStats(_ context.Context, templateID uuid.UUID) (repository.RatingStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var sum, count int64
	for key, value := range r.s.ratings {
		if key[0] == templateID {
			sum += int64(value)
			count++
		}
	}
	if count == 0 {
		return repository.RatingStats{Average: decimal.Zero}, nil
	}
	return repository.RatingStats{
		Average: decimal.NewFromInt(sum).Div(decimal.NewFromInt(count)),
		Count:   count,
	}, nil
}

func (r memoryTemplates) Stats(_ context.Context) (repository.TemplateStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var stats repository.TemplateStats
	for _, t := range r.s.templates {
		if !t.Active {
			continue
		}
		stats.Total++
		if t.IsPublic {
			stats.Public++
		}
		if t.IsPremium {
			stats.Premium++
		}
	}
	return stats, nil
}

func (r memoryTemplates) Recent(_ context.Context, limit int) ([]model.Template, error) {
	out, _, _ := r.List(context.Background(), repository.TemplateQuery{Limit: limit})
	return out, nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
