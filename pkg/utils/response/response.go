// Package response defines the HTTP error body format shared by all
// endpoints. Successful responses carry their own payload shapes; only
// failures are funneled through this package so clients can rely on one
// error contract: a generic category label, a human-readable message, and a
// stable machine-readable code.
package response

import (
	"net/http"

	"github.com/bookwise/bookchat/pkg/utils/errors"
)

// ErrorBody is the JSON body returned for every failed request.
type ErrorBody struct {
	// Error is a generic category label ("Invalid request", "Internal
	// server error", ...). Never carries upstream detail.
	Error string `json:"error"`

	// Message is the human-readable description of the failure.
	Message string `json:"message"`

	// Code is the stable machine-readable error code, e.g.
	// "VALIDATION_ERROR".
	Code string `json:"code"`

	// Errno is the internal numeric error code for log correlation.
	Errno int `json:"errno,omitempty"`
}

// NewError builds an ErrorBody from an Errno.
func NewError(e *errors.Errno) *ErrorBody {
	return &ErrorBody{
		Error:   categoryLabel(e.HTTPStatus()),
		Message: e.Message,
		Code:    e.Reason,
		Errno:   e.Code,
	}
}

// FromError builds an ErrorBody from any error, wrapping non-Errno values as
// internal errors.
func FromError(err error) *ErrorBody {
	return NewError(errors.FromError(err))
}

// categoryLabel maps an HTTP status to the generic label clients see.
// Upstream error text never leaks into this field.
func categoryLabel(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Invalid request"
	case http.StatusNotFound:
		return "Not found"
	case http.StatusTooManyRequests:
		return "Too many requests"
	case http.StatusInternalServerError:
		return "Internal server error"
	case http.StatusServiceUnavailable:
		return "Service unavailable"
	case http.StatusGatewayTimeout:
		return "Request timed out"
	default:
		return http.StatusText(status)
	}
}
