package client

import (
	"errors"
	"fmt"
)

// ErrTransport is returned when the server cannot be reached or answers with
// something other than JSON.
var ErrTransport = errors.New("transport error")

// Error codes the client reacts to.
const (
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
)

// APIError is a failure envelope returned by the server.
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
}

// IsSessionExpired reports whether err means the caller must log in again.
func IsSessionExpired(err error) bool {
	return hasCode(err, CodeTokenExpired)
}

// IsForbidden reports whether err is a role or ownership refusal.
func IsForbidden(err error) bool {
	return hasCode(err, CodeForbidden)
}

// IsNotFound reports whether err means the resource does not resolve.
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

func hasCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
