package shopapi

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidConfig is returned by NewClient when the configuration is unusable
	ErrInvalidConfig = errors.New("invalid client config")

	// ErrNetwork is returned when the request never produced an HTTP response
	ErrNetwork = errors.New("network error")

	// ErrBadRequest is returned for 400 and 422 responses
	ErrBadRequest = errors.New("bad request")

	// ErrUnauthorized is returned for 401 and 403 responses
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned for 404 responses
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned for 409 responses
	ErrConflict = errors.New("conflict")

	// ErrServer is returned for 5xx responses
	ErrServer = errors.New("server error")

	// ErrUnexpectedStatus covers every other non-2xx status
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrUnsuccessful is returned when a 2xx envelope carries success=false
	ErrUnsuccessful = errors.New("request unsuccessful")

	// ErrMissingID is returned when a create call answers without an id
	ErrMissingID = errors.New("response did not include an id")

	// ErrDecode is returned when a response body cannot be parsed
	ErrDecode = errors.New("malformed response body")

	// ErrInvalidInput is returned before any call when request fields fail validation
	ErrInvalidInput = errors.New("invalid input")
)

// APIError is a non-2xx answer from the storefront API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("shopapi: status %d", e.StatusCode)
	}
	return fmt.Sprintf("shopapi: status %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps the status code onto one of the package sentinels so callers
// can use errors.Is.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusBadRequest, e.StatusCode == http.StatusUnprocessableEntity:
		return ErrBadRequest
	case e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode == http.StatusConflict:
		return ErrConflict
	case e.StatusCode >= 500:
		return ErrServer
	default:
		return ErrUnexpectedStatus
	}
}

// ServerMessage returns the message the API attached to err, if any.
func ServerMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var unsuccessful *unsuccessfulError
	if errors.As(err, &unsuccessful) {
		return unsuccessful.message
	}
	return ""
}

type unsuccessfulError struct {
	message string
}

func (e *unsuccessfulError) Error() string {
	if e.message == "" {
		return ErrUnsuccessful.Error()
	}
	return fmt.Sprintf("%s: %s", ErrUnsuccessful, e.message)
}

func (e *unsuccessfulError) Unwrap() error { return ErrUnsuccessful }
