package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthenticated is returned when a request carries no usable credential.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrInvalidToken is returned when a presented token fails verification.
	ErrInvalidToken = errors.New("invalid token")
	// ErrSessionExpired is returned when a presented token is past its validity window.
	ErrSessionExpired = errors.New("session expired, please log in again")
	// ErrAccountNotFound is returned when the token subject no longer exists.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountDeactivated is returned when the account has been deactivated.
	ErrAccountDeactivated = errors.New("account is deactivated")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email is already registered")
	// ErrForbidden is returned when a role or ownership check fails.
	ErrForbidden = errors.New("you do not have permission to perform this action")
	// ErrNotFound is returned when a resource does not resolve to an active record.
	ErrNotFound = errors.New("resource not found")
	// ErrValidation is returned for malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")
	// ErrInternal is returned for unexpected store failures.
	ErrInternal = errors.New("internal server error")
)

// Validation wraps ErrValidation with a human-readable detail.
func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Success: false,
		Message: e.Message,
		Code:    e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var httpErr *HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.Is(err, ErrSessionExpired):
		return NewHTTPError(http.StatusUnauthorized, ErrSessionExpired.Error(), "TOKEN_EXPIRED")
	case errors.Is(err, ErrInvalidToken):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidToken.Error(), "INVALID_TOKEN")
	case errors.Is(err, ErrUnauthenticated):
		return NewHTTPError(http.StatusUnauthorized, ErrUnauthenticated.Error(), "UNAUTHENTICATED")
	case errors.Is(err, ErrAccountNotFound):
		return NewHTTPError(http.StatusUnauthorized, ErrAccountNotFound.Error(), "ACCOUNT_NOT_FOUND")
	case errors.Is(err, ErrAccountDeactivated):
		return NewHTTPError(http.StatusUnauthorized, ErrAccountDeactivated.Error(), "ACCOUNT_DEACTIVATED")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrEmailTaken):
		return NewHTTPError(http.StatusConflict, ErrEmailTaken.Error(), "EMAIL_TAKEN")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, ErrForbidden.Error(), "FORBIDDEN")
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, ErrNotFound.Error(), "NOT_FOUND")
	case errors.Is(err, ErrValidation):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
	default:
		return NewHTTPError(http.StatusInternalServerError, ErrInternal.Error(), "INTERNAL_ERROR")
	}
}
