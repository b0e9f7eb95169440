package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// OK represents a successful operation.
var OK = Register(&Errno{
	Code:     0,
	Reason:   "OK",
	HTTP:     http.StatusOK,
	GRPCCode: codes.OK,
	Message:  "Success",
})

// Request errors (category 01).
var (
	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = Register(&Errno{
		Code:     MakeCode(ServiceCommon, CategoryRequest, 0),
		Reason:   "BAD_REQUEST",
		HTTP:     http.StatusBadRequest,
		GRPCCode: codes.InvalidArgument,
		Message:  "Bad request",
	})

	// ErrValidation indicates request validation failure.
	ErrValidation = Register(&Errno{
		Code:     MakeCode(ServiceCommon, CategoryRequest, 1),
		Reason:   "VALIDATION_ERROR",
		HTTP:     http.StatusBadRequest,
		GRPCCode: codes.InvalidArgument,
		Message:  "Invalid request",
	})
)

// Resource errors (category 04).
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = Register(&Errno{
		Code:     MakeCode(ServiceCommon, CategoryResource, 0),
		Reason:   "NOT_FOUND",
		HTTP:     http.StatusNotFound,
		GRPCCode: codes.NotFound,
		Message:  "Resource not found",
	})
)

// Rate limiting errors (category 06). Reserved on the API surface; nothing
// raises this yet.
var (
	// ErrTooManyRequests indicates the caller exceeded the rate limit.
	ErrTooManyRequests = Register(&Errno{
		Code:     MakeCode(ServiceCommon, CategoryRateLimit, 0),
		Reason:   "RATE_LIMITED",
		HTTP:     http.StatusTooManyRequests,
		GRPCCode: codes.ResourceExhausted,
		Message:  "Too many requests",
	})
)

// Internal errors (category 07+).
var (
	// ErrInternal indicates an unclassified internal error.
	ErrInternal = Register(&Errno{
		Code:     MakeCode(ServiceCommon, CategoryInternal, 0),
		Reason:   "INTERNAL_ERROR",
		HTTP:     http.StatusInternalServerError,
		GRPCCode: codes.Internal,
		Message:  "An unexpected error occurred",
	})

	// ErrDatabase indicates a database failure.
	ErrDatabase = Register(&Errno{
		Code:     MakeCode(ServiceCommon, CategoryDatabase, 0),
		Reason:   "DATABASE_ERROR",
		HTTP:     http.StatusInternalServerError,
		GRPCCode: codes.Internal,
		Message:  "Database error",
	})

	// ErrTimeout indicates an operation timed out.
	ErrTimeout = Register(&Errno{
		Code:     MakeCode(ServiceCommon, CategoryTimeout, 0),
		Reason:   "TIMEOUT",
		HTTP:     http.StatusGatewayTimeout,
		GRPCCode: codes.DeadlineExceeded,
		Message:  "Operation timed out",
	})

	// ErrServiceUnavailable indicates a dependency is unreachable.
	ErrServiceUnavailable = Register(&Errno{
		Code:     MakeCode(ServiceCommon, CategoryNetwork, 0),
		Reason:   "SERVICE_UNAVAILABLE",
		HTTP:     http.StatusServiceUnavailable,
		GRPCCode: codes.Unavailable,
		Message:  "Service unavailable",
	})
)
