package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"mailforge/internal/middleware"
	"mailforge/internal/model"
	"mailforge/internal/service"
)

// AdminHandler handles the administrator endpoints.
type AdminHandler struct {
	accountService  service.AccountService
	templateService service.TemplateService
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(accountService service.AccountService, templateService service.TemplateService) *AdminHandler {
	return &AdminHandler{
		accountService:  accountService,
		templateService: templateService,
	}
}

// ChangeRoleRequest sets an account's role.
type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

// Dashboard godoc
// @Summary Account and template counters
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DataResponse{data=model.DashboardStats}
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c echo.Context) error {
	stats, err := h.accountService.Dashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, data(stats))
}

// ListUsers godoc
// @Summary List accounts
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param search query string false "Substring of name or email"
// @Param role query string false "user or admin"
// @Param active query bool false "Active flag"
// @Param page query int false "Page, from 1"
// @Param limit query int false "Page size"
// @Success 200 {object} DataResponse{data=model.AccountPage}
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	page, err := h.accountService.ListUsers(c.Request().Context(), service.UserListParams{
		Page:   queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
		Search: c.QueryParam("search"),
		Role:   model.Role(c.QueryParam("role")),
		Active: queryBool(c, "active"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, data(page))
}

// ChangeRole godoc
// @Summary Change an account's role
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Param request body ChangeRoleRequest true "New role"
// @Success 200 {object} DataResponse{data=model.Account}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/users/{id}/role [put]
func (h *AdminHandler) ChangeRole(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req ChangeRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	account, err := h.accountService.ChangeRole(c.Request().Context(), middleware.PrincipalFrom(c), id, model.Role(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, data(account))
}

// DeactivateUser godoc
// @Summary Deactivate an account
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Success 200 {object} DataResponse{data=model.Account}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeactivateUser(c echo.Context) error {
	return h.setActive(c, false)
}

// ActivateUser godoc
// @Summary Reactivate an account
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Success 200 {object} DataResponse{data=model.Account}
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/users/{id}/activate [post]
func (h *AdminHandler) ActivateUser(c echo.Context) error {
	return h.setActive(c, true)
}

func (h *AdminHandler) setActive(c echo.Context, active bool) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	account, err := h.accountService.SetActive(c.Request().Context(), middleware.PrincipalFrom(c), id, active)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, data(account))
}

// ListTemplates godoc
// @Summary List templates of every owner
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param includeInactive query bool false "Include soft-deleted templates"
// @Param category query string false "Exact category"
// @Param search query string false "Substring of name or subject"
// @Param page query int false "Page, from 1"
// @Param limit query int false "Page size"
// @Success 200 {object} DataResponse{data=model.TemplatePage}
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/templates [get]
func (h *AdminHandler) ListTemplates(c echo.Context) error {
	page, err := h.templateService.AdminList(c.Request().Context(), listParams(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, data(page))
}

// GetTemplate godoc
// @Summary Inspect a template, including soft-deleted ones
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Template ID"
// @Success 200 {object} DataResponse{data=model.Template}
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/templates/{id} [get]
func (h *AdminHandler) GetTemplate(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	template, err := h.templateService.AdminGet(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, data(template))
}

// CreateTemplate godoc
// @Summary Create a public template
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.TemplateInput true "Template"
// @Success 201 {object} DataResponse{data=model.Template}
// @Failure 400 {object} errors.ErrorResponse
// @Router /admin/templates [post]
func (h *AdminHandler) CreateTemplate(c echo.Context) error {
	var req service.TemplateInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	template, err := h.templateService.AdminCreate(c.Request().Context(), middleware.PrincipalFrom(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, data(template))
}

// UpdateTemplate godoc
// @Summary Update any template
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Template ID"
// @Param request body service.TemplateUpdate true "Fields to change"
// @Success 200 {object} DataResponse{data=model.Template}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/templates/{id} [put]
func (h *AdminHandler) UpdateTemplate(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req service.TemplateUpdate
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	template, err := h.templateService.Update(c.Request().Context(), middleware.PrincipalFrom(c), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, data(template))
}

// DeleteTemplate godoc
// @Summary Soft-delete any template
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Template ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/templates/{id} [delete]
func (h *AdminHandler) DeleteTemplate(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.templateService.Delete(c.Request().Context(), middleware.PrincipalFrom(c), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "template deleted"})
}
