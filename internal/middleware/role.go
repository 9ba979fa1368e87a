package middleware

import (
	"github.com/labstack/echo/v4"

	"mailforge/internal/auth"
	apperrors "mailforge/internal/errors"
)

// RequireAdmin lets a request through only when SessionGuard placed an administrator.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal := PrincipalFrom(c)
			if principal == nil {
				return apperrors.ErrUnauthenticated
			}
			if !auth.CanAdminister(principal.Role) {
				return apperrors.ErrForbidden
			}
			return next(c)
		}
	}
}
