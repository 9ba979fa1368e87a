package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "mailforge/internal/errors"
	"mailforge/internal/model"
	"mailforge/internal/service"
)

// DataResponse wraps a single resource under "data".
type DataResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

// MessageResponse acknowledges an operation without a payload.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Success   bool           `json:"success"`
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	User      *model.Account `json:"user"`
}

// UserResponse carries the caller's own account.
type UserResponse struct {
	Success bool           `json:"success"`
	User    *model.Account `json:"user"`
}

// TemplateListResponse is a page of templates.
type TemplateListResponse struct {
	Success    bool             `json:"success"`
	Templates  []model.Template `json:"templates"`
	Pagination model.Pagination `json:"pagination"`
}

func data(v interface{}) DataResponse {
	return DataResponse{Success: true, Data: v}
}

func templateList(page *model.TemplatePage) TemplateListResponse {
	return TemplateListResponse{
		Success:    true,
		Templates:  page.Templates,
		Pagination: page.Pagination,
	}
}

// bindAndValidate decodes the request into req and runs struct validation.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperrors.Validation("invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return apperrors.Validation("%s", err.Error())
	}
	return nil
}

// pathID parses the :id path parameter. Malformed ids cannot resolve and read as missing.
func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperrors.ErrNotFound
	}
	return id, nil
}

func queryInt(c echo.Context, name string) int {
	v, err := strconv.Atoi(strings.TrimSpace(c.QueryParam(name)))
	if err != nil {
		return 0
	}
	return v
}

// queryBool reads a tri-state flag: absent or unparseable values are nil.
func queryBool(c echo.Context, name string) *bool {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}

func listParams(c echo.Context) service.ListParams {
	includeInactive := queryBool(c, "includeInactive")
	return service.ListParams{
		Page:            queryInt(c, "page"),
		Limit:           queryInt(c, "limit"),
		SortBy:          c.QueryParam("sortBy"),
		SortOrder:       c.QueryParam("sortOrder"),
		Category:        c.QueryParam("category"),
		Search:          c.QueryParam("search"),
		IsPublic:        queryBool(c, "isPublic"),
		IsPremium:       queryBool(c, "isPremium"),
		IncludeInactive: includeInactive != nil && *includeInactive,
	}
}
