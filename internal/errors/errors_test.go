package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"expired session", ErrSessionExpired, http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"wrapped expired session", fmt.Errorf("guard: %w", ErrSessionExpired), http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"missing token", ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"bad token", ErrInvalidToken, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"account gone", ErrAccountNotFound, http.StatusUnauthorized, "ACCOUNT_NOT_FOUND"},
		{"account deactivated", ErrAccountDeactivated, http.StatusUnauthorized, "ACCOUNT_DEACTIVATED"},
		{"bad credentials", ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"email taken", ErrEmailTaken, http.StatusConflict, "EMAIL_TAKEN"},
		{"forbidden", ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"not found", ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"validation", Validation("rating must be between %d and %d", 1, 5), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.wantStatus, httpErr.StatusCode)
			assert.Equal(t, tt.wantCode, httpErr.Code)
		})
	}
}

func TestValidationKeepsDetail(t *testing.T) {
	err := Validation("name is required")

	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, MapErrorToHTTP(err).Message, "name is required")
}

func TestMapErrorToHTTP_InternalHidesCause(t *testing.T) {
	httpErr := MapErrorToHTTP(errors.New("dial tcp 10.0.0.1:3306: refused"))

	assert.Equal(t, ErrInternal.Error(), httpErr.Message)
}

func TestEchoErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "domain error",
			err:        ErrForbidden,
			wantStatus: http.StatusForbidden,
			wantCode:   "FORBIDDEN",
		},
		{
			name:       "echo error with envelope",
			err:        echo.NewHTTPError(http.StatusUnauthorized, NewHTTPError(http.StatusUnauthorized, "x", "TOKEN_EXPIRED").ToErrorResponse()),
			wantStatus: http.StatusUnauthorized,
			wantCode:   "TOKEN_EXPIRED",
		},
		{
			name:       "echo route miss",
			err:        echo.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "unexpected failure",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/templates", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			NewEchoErrorHandler(zap.NewNop())(tt.err, c)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}
