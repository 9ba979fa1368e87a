package client

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"mailforge/internal/model"
	"mailforge/internal/service"
)

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	User      model.Account `json:"user"`
}

type userPayload struct {
	User model.Account `json:"user"`
}

// Register creates an account and keeps its token in the session.
func (g *Gateway) Register(ctx context.Context, input service.RegisterInput) (*AuthResult, error) {
	var result AuthResult
	if err := g.post(ctx, "/auth/register", input, &result); err != nil {
		return nil, err
	}
	g.session.Set(result.Token)
	return &result, nil
}

// Login authenticates and keeps the issued token in the session.
func (g *Gateway) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var result AuthResult
	body := map[string]string{"email": email, "password": password}
	if err := g.post(ctx, "/auth/login", body, &result); err != nil {
		return nil, err
	}
	g.session.Set(result.Token)
	return &result, nil
}

// Logout forgets the token. Tokens are stateless so nothing is sent to the server.
func (g *Gateway) Logout() {
	g.session.Clear()
}

// Me returns the account behind the session.
func (g *Gateway) Me(ctx context.Context) (*model.Account, error) {
	var payload userPayload
	if err := g.get(ctx, "/auth/me", nil, &payload); err != nil {
		return nil, err
	}
	return &payload.User, nil
}

// UpdateMe changes the caller's profile.
func (g *Gateway) UpdateMe(ctx context.Context, update service.ProfileUpdate) (*model.Account, error) {
	var payload userPayload
	if err := g.put(ctx, "/auth/me", update, &payload); err != nil {
		return nil, err
	}
	return &payload.User, nil
}

// ListTemplates returns templates visible to the caller.
func (g *Gateway) ListTemplates(ctx context.Context, params service.ListParams) (*model.TemplatePage, error) {
	return g.templatePage(ctx, "/templates", params)
}

// MyTemplates returns the caller's own templates.
func (g *Gateway) MyTemplates(ctx context.Context, params service.ListParams) (*model.TemplatePage, error) {
	return g.templatePage(ctx, "/templates/my-templates", params)
}

// Favorites returns the caller's favorite templates.
func (g *Gateway) Favorites(ctx context.Context, params service.ListParams) (*model.TemplatePage, error) {
	return g.templatePage(ctx, "/templates/favorites", params)
}

func (g *Gateway) templatePage(ctx context.Context, path string, params service.ListParams) (*model.TemplatePage, error) {
	var page model.TemplatePage
	if err := g.get(ctx, path, listQuery(params), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetTemplate fetches one template.
func (g *Gateway) GetTemplate(ctx context.Context, id uuid.UUID) (*model.Template, error) {
	var template model.Template
	if err := g.get(ctx, "/templates/"+id.String(), nil, &template); err != nil {
		return nil, err
	}
	return &template, nil
}

// PreviewTemplate renders a template to HTML on the server.
func (g *Gateway) PreviewTemplate(ctx context.Context, id uuid.UUID) (*service.Preview, error) {
	var preview service.Preview
	if err := g.get(ctx, "/templates/"+id.String()+"/preview", nil, &preview); err != nil {
		return nil, err
	}
	return &preview, nil
}

// CreateTemplate stores a new template owned by the caller.
func (g *Gateway) CreateTemplate(ctx context.Context, input service.TemplateInput) (*model.Template, error) {
	var template model.Template
	if err := g.post(ctx, "/templates", input, &template); err != nil {
		return nil, err
	}
	return &template, nil
}

// UpdateTemplate applies a partial update.
func (g *Gateway) UpdateTemplate(ctx context.Context, id uuid.UUID, update service.TemplateUpdate) (*model.Template, error) {
	var template model.Template
	if err := g.put(ctx, "/templates/"+id.String(), update, &template); err != nil {
		return nil, err
	}
	return &template, nil
}

// DeleteTemplate soft-deletes a template.
func (g *Gateway) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	return g.delete(ctx, "/templates/"+id.String(), nil)
}

// CloneTemplate copies a template into a private one owned by the caller.
func (g *Gateway) CloneTemplate(ctx context.Context, id uuid.UUID) (*model.Template, error) {
	var template model.Template
	if err := g.post(ctx, "/templates/"+id.String()+"/clone", nil, &template); err != nil {
		return nil, err
	}
	return &template, nil
}

// ToggleFavorite flips the caller's favorite mark.
func (g *Gateway) ToggleFavorite(ctx context.Context, id uuid.UUID) (*service.FavoriteResult, error) {
	var result service.FavoriteResult
	if err := g.post(ctx, "/templates/"+id.String()+"/favorite", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RateTemplate records the caller's 1 to 5 rating.
func (g *Gateway) RateTemplate(ctx context.Context, id uuid.UUID, rating int) (*service.RatingResult, error) {
	var result service.RatingResult
	body := map[string]int{"rating": rating}
	if err := g.post(ctx, "/templates/"+id.String()+"/rate", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Dashboard returns the admin counters.
func (g *Gateway) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	var stats model.DashboardStats
	if err := g.get(ctx, "/admin/dashboard", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListUsers pages through accounts.
func (g *Gateway) ListUsers(ctx context.Context, params service.UserListParams) (*model.AccountPage, error) {
	q := url.Values{}
	setInt(q, "page", params.Page)
	setInt(q, "limit", params.Limit)
	setString(q, "search", params.Search)
	setString(q, "role", string(params.Role))
	setBool(q, "active", params.Active)

	var page model.AccountPage
	if err := g.get(ctx, "/admin/users", q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ChangeRole sets an account's role.
func (g *Gateway) ChangeRole(ctx context.Context, id uuid.UUID, role model.Role) (*model.Account, error) {
	var account model.Account
	body := map[string]string{"role": string(role)}
	if err := g.put(ctx, "/admin/users/"+id.String()+"/role", body, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// DeactivateUser soft-deletes an account.
func (g *Gateway) DeactivateUser(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	var account model.Account
	if err := g.delete(ctx, "/admin/users/"+id.String(), &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// ActivateUser reactivates an account.
func (g *Gateway) ActivateUser(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	var account model.Account
	if err := g.post(ctx, "/admin/users/"+id.String()+"/activate", nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// AdminListTemplates pages through templates of every owner.
func (g *Gateway) AdminListTemplates(ctx context.Context, params service.ListParams) (*model.TemplatePage, error) {
	return g.templatePage(ctx, "/admin/templates", params)
}

// AdminGetTemplate fetches any template, soft-deleted ones included.
func (g *Gateway) AdminGetTemplate(ctx context.Context, id uuid.UUID) (*model.Template, error) {
	var template model.Template
	if err := g.get(ctx, "/admin/templates/"+id.String(), nil, &template); err != nil {
		return nil, err
	}
	return &template, nil
}

// AdminCreateTemplate creates a public template.
func (g *Gateway) AdminCreateTemplate(ctx context.Context, input service.TemplateInput) (*model.Template, error) {
	var template model.Template
	if err := g.post(ctx, "/admin/templates", input, &template); err != nil {
		return nil, err
	}
	return &template, nil
}

// AdminUpdateTemplate updates any template.
func (g *Gateway) AdminUpdateTemplate(ctx context.Context, id uuid.UUID, update service.TemplateUpdate) (*model.Template, error) {
	var template model.Template
	if err := g.put(ctx, "/admin/templates/"+id.String(), update, &template); err != nil {
		return nil, err
	}
	return &template, nil
}

// AdminDeleteTemplate soft-deletes any template.
func (g *Gateway) AdminDeleteTemplate(ctx context.Context, id uuid.UUID) error {
	return g.delete(ctx, "/admin/templates/"+id.String(), nil)
}

func listQuery(params service.ListParams) url.Values {
	q := url.Values{}
	setInt(q, "page", params.Page)
	setInt(q, "limit", params.Limit)
	setString(q, "sortBy", params.SortBy)
	setString(q, "sortOrder", params.SortOrder)
	setString(q, "category", params.Category)
	setString(q, "search", params.Search)
	setBool(q, "isPublic", params.IsPublic)
	setBool(q, "isPremium", params.IsPremium)
	if params.IncludeInactive {
		q.Set("includeInactive", "true")
	}
	return q
}

func setInt(q url.Values, key string, v int) {
	if v > 0 {
		q.Set(key, strconv.Itoa(v))
	}
}

func setString(q url.Values, key, v string) {
	if v != "" {
		q.Set(key, v)
	}
}

func setBool(q url.Values, key string, v *bool) {
	if v != nil {
		q.Set(key, strconv.FormatBool(*v))
	}
}
