// internal/errors/errors.go
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies failures of the repository API and the layers above it.
type Kind int

const (
	KindGeneric Kind = iota
	KindInvalidRequest
	KindRateLimited
	KindNotFound
	// KindValidationRejected is the remote side refusing the query (HTTP 422).
	KindValidationRejected
	KindNetworkUnreachable
)

func (k Kind) String() string {
	switch k {
	case KindInvalidRequest:
		return "invalid_request"
	case KindRateLimited:
		return "rate_limited"
	case KindNotFound:
		return "not_found"
	case KindValidationRejected:
		return "validation_rejected"
	case KindNetworkUnreachable:
		return "network_unreachable"
	default:
		return "generic"
	}
}

// Sentinels for errors.Is matching on kind.
var (
	ErrInvalidRequest     = &APIError{Kind: KindInvalidRequest}
	ErrRateLimited        = &APIError{Kind: KindRateLimited}
	ErrNotFound           = &APIError{Kind: KindNotFound}
	ErrValidationRejected = &APIError{Kind: KindValidationRejected}
	ErrNetworkUnreachable = &APIError{Kind: KindNetworkUnreachable}
	ErrGeneric            = &APIError{Kind: KindGeneric}
)

// APIError is the typed failure surfaced by the repository client.
type APIError struct {
	Kind       Kind
	Status     int
	StatusText string
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.String()
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is matches any *APIError of the same kind.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// InvalidRequest reports a caller bug such as an empty query.
func InvalidRequest(msg string) *APIError {
	return &APIError{Kind: KindInvalidRequest, Message: "invalid request: " + msg}
}

// RateLimited wraps a 403 response.
func RateLimited(err error) *APIError {
	return &APIError{
		Kind:       KindRateLimited,
		Status:     http.StatusForbidden,
		StatusText: http.StatusText(http.StatusForbidden),
		Message:    "API rate limit exceeded. Please try again later.",
		Err:        err,
	}
}

// NotFound wraps a 404 response.
func NotFound(err error) *APIError {
	return &APIError{
		Kind:       KindNotFound,
		Status:     http.StatusNotFound,
		StatusText: http.StatusText(http.StatusNotFound),
		Message:    "Repository not found.",
		Err:        err,
	}
}

// ValidationRejected wraps a 422 response.
func ValidationRejected(err error) *APIError {
	return &APIError{
		Kind:       KindValidationRejected,
		Status:     http.StatusUnprocessableEntity,
		StatusText: http.StatusText(http.StatusUnprocessableEntity),
		Message:    "Invalid search query.",
		Err:        err,
	}
}

// NetworkUnreachable wraps a transport failure where no response was received.
func NetworkUnreachable(err error) *APIError {
	return &APIError{
		Kind:    KindNetworkUnreachable,
		Message: "Network error. Please check your connection.",
		Err:     err,
	}
}

// Generic wraps any other non-success response.
func Generic(status int, statusText string, err error) *APIError {
	return &APIError{
		Kind:       KindGeneric,
		Status:     status,
		StatusText: statusText,
		Message:    fmt.Sprintf("GitHub API error: %d %s", status, statusText),
		Err:        err,
	}
}

// FromStatus maps a non-success HTTP status to its typed error.
func FromStatus(status int, err error) *APIError {
	switch status {
	case http.StatusForbidden:
		return RateLimited(err)
	case http.StatusNotFound:
		return NotFound(err)
	case http.StatusUnprocessableEntity:
		return ValidationRejected(err)
	default:
		return Generic(status, http.StatusText(status), err)
	}
}

// KindOf returns the kind of the first *APIError in err's chain.
func KindOf(err error) (Kind, bool) {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Kind, true
	}
	return KindGeneric, false
}

// IsRetryable reports whether a read that failed with err may be attempted again.
// Only network failures and non-4xx generic failures qualify.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if !stderrors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Kind {
	case KindNetworkUnreachable:
		return true
	case KindGeneric:
		return apiErr.Status < 400 || apiErr.Status >= 500
	default:
		return false
	}
}
