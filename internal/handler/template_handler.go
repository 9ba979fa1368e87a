package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"mailforge/internal/middleware"
	"mailforge/internal/service"
)

// TemplateHandler handles template endpoints for authenticated accounts.
type TemplateHandler struct {
	templateService service.TemplateService
}

// NewTemplateHandler creates a new template handler.
func NewTemplateHandler(templateService service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

// RateRequest carries a 1 to 5 rating.
type RateRequest struct {
	Rating int `json:"rating"`
}

// List godoc
// @Summary List templates visible to the caller
// @Tags templates
// @Produce json
// @Security BearerAuth
// @Param category query string false "Exact category"
// @Param search query string false "Substring of name or subject"
// @Param isPublic query bool false "Public flag"
// @Param isPremium query bool false "Premium flag"
// @Param page query int false "Page, from 1"
// @Param limit query int false "Page size, default 12, max 100"
// @Param sortBy query string false "createdAt, updatedAt, name, rating or favoriteCount"
// @Param sortOrder query string false "asc or desc"
// @Success 200 {object} TemplateListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /templates [get]
func (h *TemplateHandler) List(c echo.Context) error {
	page, err := h.templateService.List(c.Request().Context(), middleware.PrincipalFrom(c), listParams(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, templateList(page))
}

// MyTemplates godoc
// @Summary List the caller's own templates
// @Tags templates
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page, from 1"
// @Param limit query int false "Page size"
// @Success 200 {object} TemplateListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /templates/my-templates [get]
func (h *TemplateHandler) MyTemplates(c echo.Context) error {
	page, err := h.templateService.MyTemplates(c.Request().Context(), middleware.PrincipalFrom(c), listParams(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, templateList(page))
}

// Favorites godoc
// @Summary List the caller's favorite templates
// @Tags templates
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page, from 1"
// @Param limit query int false "Page size"
// @Success 200 {object} TemplateListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /templates/favorites [get]
func (h *TemplateHandler) Favorites(c echo.Context) error {
	page, err := h.templateService.Favorites(c.Request().Context(), middleware.PrincipalFrom(c), listParams(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, templateList(page))
}

// Get godoc
// @Summary Get a template
// @Tags templates
// @Produce json
// @Security BearerAuth
// @Param id path string true "Template ID"
// @Success 200 {object} DataResponse{data=model.Template}
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /templates/{id} [get]
func (h *TemplateHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	template, err := h.templateService.Get(c.Request().Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, data(template))
}

// Preview godoc
// @Summary Render a template to HTML
// @Tags templates
// @Produce json
// @Security BearerAuth
// @Param id path string true "Template ID"
// @Success 200 {object} DataResponse{data=service.Preview}
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /templates/{id}/preview [get]
func (h *TemplateHandler) Preview(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	preview, err := h.templateService.Preview(c.Request().Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, data(preview))
}

// Create godoc
// @Summary Create a template
// @Tags templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.TemplateInput true "Template"
// @Success 201 {object} DataResponse{data=model.Template}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /templates [post]
func (h *TemplateHandler) Create(c echo.Context) error {
	var req service.TemplateInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	template, err := h.templateService.Create(c.Request().Context(), middleware.PrincipalFrom(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, data(template))
}

// Update godoc
// @Summary Update a template
// @Tags templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Template ID"
// @Param request body service.TemplateUpdate true "Fields to change"
// @Success 200 {object} DataResponse{data=model.Template}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /templates/{id} [put]
func (h *TemplateHandler) Update(c echo.Context) error {
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

// Delete godoc
// @Summary Delete a template
// @Tags templates
// @Produce json
// @Security BearerAuth
// @Param id path string true "Template ID"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /templates/{id} [delete]
func (h *TemplateHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.templateService.Delete(c.Request().Context(), middleware.PrincipalFrom(c), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "template deleted"})
}

// Clone godoc
// @Summary Clone a template into a private copy
// @Tags templates
// @Produce json
// @Security BearerAuth
// @Param id path string true "Template ID"
// @Success 201 {object} DataResponse{data=model.Template}
// @Failure 404 {object} errors.ErrorResponse
// @Router /templates/{id}/clone [post]
func (h *TemplateHandler) Clone(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	clone, err := h.templateService.Clone(c.Request().Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, data(clone))
}

// ToggleFavorite godoc
// @Summary Toggle the caller's favorite mark
// @Tags templates
// @Produce json
// @Security BearerAuth
// @Param id path string true "Template ID"
// @Success 200 {object} DataResponse{data=service.FavoriteResult}
// @Failure 404 {object} errors.ErrorResponse
// @Router /templates/{id}/favorite [post]
func (h *TemplateHandler) ToggleFavorite(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	result, err := h.templateService.ToggleFavorite(c.Request().Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, data(result))
}

// Rate godoc
// @Summary Rate a template from 1 to 5
// @Tags templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Template ID"
// @Param request body RateRequest true "Rating"
// @Success 200 {object} DataResponse{data=service.RatingResult}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /templates/{id}/rate [post]
func (h *TemplateHandler) Rate(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req RateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	result, err := h.templateService.Rate(c.Request().Context(), middleware.PrincipalFrom(c), id, req.Rating)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, data(result))
}
