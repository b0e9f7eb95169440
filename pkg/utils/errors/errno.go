// Package errors provides the structured error system used across bookchat.
//
// Every failure that crosses a layer boundary is an *Errno: a registered,
// globally unique numeric code plus a machine-readable reason string that is
// surfaced verbatim in HTTP error bodies. Dependency wrappers raise their own
// variant (ErrEmbedding, ErrRetrieval, ErrGeneration, ErrStorage) so callers
// classify failures by identity, never by inspecting message text.
//
// Error Code Format: AABBCCC (7 digits)
//
//	AA  (00-99): Service code - identifies the source service
//	BB  (00-99): Category code - identifies the error category
//	CCC (000-999): Sequence number within the category
//
// Usage:
//
//	// Predefined errors
//	return errors.ErrValidation.WithMessage("message_text is required")
//
//	// Wrapping underlying errors
//	return errors.ErrRetrieval.WithCause(err)
//
//	// Classifying
//	if errors.Is(err, errors.ErrGeneration) { ... }
package errors

import (
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

// Errno represents a structured error with a numeric code, a stable
// machine-readable reason string, and HTTP/gRPC status mappings.
type Errno struct {
	// Code is the unique numeric error code (AABBCCC format).
	Code int `json:"code"`

	// Reason is the stable machine-readable identifier exposed to API
	// clients, e.g. "VALIDATION_ERROR". It never changes once published.
	Reason string `json:"reason"`

	// HTTP is the HTTP status code to return.
	HTTP int `json:"-"`

	// GRPCCode is the gRPC status code.
	GRPCCode codes.Code `json:"-"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// cause is the underlying error, if any.
	cause error
}

// Error implements the error interface.
func (e *Errno) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s (%d): %s: %v", e.Reason, e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s (%d): %s", e.Reason, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Errno) Unwrap() error {
	return e.cause
}

// WithCause returns a copy of the Errno carrying the given cause.
func (e *Errno) WithCause(cause error) *Errno {
	clone := *e
	clone.cause = cause
	return &clone
}

// WithMessage returns a copy of the Errno with a custom message.
func (e *Errno) WithMessage(msg string) *Errno {
	clone := *e
	clone.Message = msg
	return &clone
}

// WithMessagef returns a copy of the Errno with a formatted message.
func (e *Errno) WithMessagef(format string, args ...interface{}) *Errno {
	clone := *e
	clone.Message = fmt.Sprintf(format, args...)
	return &clone
}

// HTTPStatus returns the HTTP status code.
func (e *Errno) HTTPStatus() int {
	if e.HTTP != 0 {
		return e.HTTP
	}
	return http.StatusInternalServerError
}

// GRPCStatus returns the gRPC status code.
func (e *Errno) GRPCStatus() codes.Code {
	if e.GRPCCode != codes.OK {
		return e.GRPCCode
	}
	return codes.Internal
}

// Is reports whether target is an Errno with the same code. This makes
// errors.Is(err, ErrRetrieval) match any WithCause/WithMessage derivative.
func (e *Errno) Is(target error) bool {
	if t, ok := target.(*Errno); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a new Errno with the given parameters. The result is not
// registered; use Register for package-level error definitions.
func New(code int, reason string, httpStatus int, grpcCode codes.Code, message string) *Errno {
	return &Errno{
		Code:     code,
		Reason:   reason,
		HTTP:     httpStatus,
		GRPCCode: grpcCode,
		Message:  message,
	}
}

// Format implements fmt.Formatter.
func (e *Errno) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "%s (%d) [HTTP %d, gRPC %s]: %s", e.Reason, e.Code, e.HTTP, e.GRPCCode.String(), e.Message)
			if e.cause != nil {
				_, _ = fmt.Fprintf(s, "\ncaused by: %+v", e.cause)
			}
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}
