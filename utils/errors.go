package utils

import "fmt"

// ErrorKind is the machine-readable error classification returned to clients.
type ErrorKind string

const (
	KindValidation  ErrorKind = "validation_error"
	KindAuth        ErrorKind = "auth_error"
	KindNotFound    ErrorKind = "not_found"
	KindRateLimit   ErrorKind = "rate_limit_exceeded"
	KindUnavailable ErrorKind = "service_unavailable"
	KindInternal    ErrorKind = "internal_error"
)

// APIError carries a client-safe kind/message pair. Err holds the underlying
// cause for server-side logging and is never serialized.
type APIError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Status maps the error kind to its HTTP status code.
func (e *APIError) Status() int {
	switch e.Kind {
	case KindValidation:
		return 400
	case KindAuth:
		return 401
	case KindNotFound:
		return 404
	case KindRateLimit:
		return 429
	case KindUnavailable:
		return 503
	default:
		return 500
	}
}

func ValidationError(format string, args ...interface{}) *APIError {
	return &APIError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func AuthError(message string) *APIError {
	return &APIError{Kind: KindAuth, Message: message}
}

func NotFoundError(message string) *APIError {
	return &APIError{Kind: KindNotFound, Message: message}
}

func RateLimitError(message string) *APIError {
	return &APIError{Kind: KindRateLimit, Message: message}
}

// UnavailableError hides database outage detail behind a generic message.
func UnavailableError(err error) *APIError {
	return &APIError{
		Kind:    KindUnavailable,
		Message: "Service temporarily unavailable. Please try again later.",
		Err:     err,
	}
}

func InternalError(err error) *APIError {
	return &APIError{Kind: KindInternal, Message: "Internal server error", Err: err}
}
