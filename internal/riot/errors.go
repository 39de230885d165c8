package riot

import (
	"errors"
	"fmt"
	"net/http"
)

// API error types
var (
	ErrEmptyName       = errors.New("display name cannot be empty")
	ErrNotFound        = errors.New("resource not found (404)")
	ErrAPIKeyExpired   = errors.New("api key expired (401)")
	ErrAPIKeyForbidden = errors.New("api key forbidden (403)")
	ErrRateLimited     = errors.New("rate limited (429)")
)

// NotFoundError reports a display name with no matching account
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("summoner %q not found", e.Name)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// TransportError is any failure to get a decodable 200 response from the API.
// Status is zero when no response was received.
type TransportError struct {
	Endpoint string
	URL      string
	Status   int
	Err      error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: GET %s: status %d: %v", e.Endpoint, e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: GET %s: %v", e.Endpoint, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// statusError maps a non-200 status code to its sentinel
func statusError(status int) error {
	switch status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrAPIKeyExpired
	case http.StatusForbidden:
		return ErrAPIKeyForbidden
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return fmt.Errorf("unexpected status code: %d", status)
	}
}

// IsAPIKeyError checks if an error indicates an expired or forbidden key
func IsAPIKeyError(err error) bool {
	return errors.Is(err, ErrAPIKeyExpired) || errors.Is(err, ErrAPIKeyForbidden)
}
