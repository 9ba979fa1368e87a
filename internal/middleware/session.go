package middleware

import (
	"context"
	"errors"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"mailforge/internal/auth"
	apperrors "mailforge/internal/errors"
	"mailforge/internal/model"
)

const (
	sessionContextKey   = "session"
	principalContextKey = "principal"
)

// AccountLoader resolves the account behind a verified session.
type AccountLoader interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*model.Account, error)
}

// SessionGuard authenticates requests carrying "Authorization: Bearer <token>".
// Requests without a usable header are rejected before any account lookup.
// On success the caller is available through PrincipalFrom.
func SessionGuard(codec *auth.TokenCodec, accounts AccountLoader) echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		ContextKey:  sessionContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return codec.Verify(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return sessionError(err)
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(loadPrincipal(accounts, next))
	}
}

func sessionError(err error) error {
	var extractErr *echojwt.TokenExtractionError
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return apperrors.ErrSessionExpired
	case errors.As(err, &extractErr):
		return apperrors.ErrUnauthenticated
	case err == nil:
		return apperrors.ErrUnauthenticated
	default:
		return apperrors.ErrInvalidToken
	}
}

func loadPrincipal(accounts AccountLoader, next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		session, ok := c.Get(sessionContextKey).(*auth.Session)
		if !ok || session == nil {
			return apperrors.ErrUnauthenticated
		}

		account, err := accounts.GetAccount(c.Request().Context(), session.AccountID)
		if err != nil {
			return err
		}
		if !account.Active {
			return apperrors.ErrAccountDeactivated
		}

		c.Set(principalContextKey, auth.NewPrincipal(account))
		return next(c)
	}
}

// PrincipalFrom returns the caller placed by SessionGuard, or nil.
func PrincipalFrom(c echo.Context) *auth.Principal {
	principal, _ := c.Get(principalContextKey).(*auth.Principal)
	return principal
}
