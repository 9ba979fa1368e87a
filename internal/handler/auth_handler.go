package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "mailforge/internal/errors"
	"mailforge/internal/middleware"
	"mailforge/internal/service"
)

// AuthHandler handles authentication and profile endpoints.
type AuthHandler struct {
	authService    service.AuthService
	accountService service.AccountService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, accountService service.AccountService) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		accountService: accountService,
	}
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register godoc
// @Summary Register a new account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.RegisterInput true "Registration data"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req service.RegisterInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.authService.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, AuthResponse{
		Success:   true,
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      result.Account,
	})
}

// Login godoc
// @Summary Login and receive a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, AuthResponse{
		Success:   true,
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      result.Account,
	})
}

// Me godoc
// @Summary Get the current account
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	principal := middleware.PrincipalFrom(c)
	if principal == nil {
		return apperrors.ErrUnauthenticated
	}
	return c.JSON(http.StatusOK, UserResponse{Success: true, User: principal.Account})
}

// UpdateMe godoc
// @Summary Update the current account's profile
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.ProfileUpdate true "Profile fields"
// @Success 200 {object} UserResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/me [put]
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	var req service.ProfileUpdate
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	account, err := h.accountService.UpdateProfile(c.Request().Context(), middleware.PrincipalFrom(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, UserResponse{Success: true, User: account})
}
