// Package apierror carries client-facing failures that already know their
// HTTP status and machine-readable code.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if e.Details == "" {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
}

func New(code, message, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status}
}

func BadRequest(message, details string) *APIError {
	return New("BAD_REQUEST", message, details, http.StatusBadRequest)
}

func NotFound(message, details string) *APIError {
	return New("NOT_FOUND", message, details, http.StatusNotFound)
}

// Forbidden is used for media paths that resolve outside the uploads root.
func Forbidden(code, message, details string) *APIError {
	return New(code, message, details, http.StatusForbidden)
}

func Conflict(message, details string) *APIError {
	return New("CONFLICT", message, details, http.StatusConflict)
}

// As reports the first *APIError in err's chain.
func As(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr != nil {
		return apiErr, true
	}
	return nil, false
}
