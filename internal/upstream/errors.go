package upstream

import (
	"errors"
	"fmt"
)

// ErrUnauthorized marks a 401 from the API. Callers evict the session
// and send the user back to login; the token is not retried.
var ErrUnauthorized = errors.New("upstream: unauthorized")

// ErrRateLimited marks a 429 from the API's auth throttle.
var ErrRateLimited = errors.New("upstream: rate limited")

// ErrNotFound marks a 404 for a resource the session can no longer see.
var ErrNotFound = errors.New("upstream: not found")

// APIError carries the status and message of a non-2xx API response
// that is not one of the sentinel conditions above.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream: status %d", e.StatusCode)
}

// statusError maps an API status code and error body to a Go error.
func statusError(status int, message string) error {
	switch status {
	case 401:
		if message != "" {
			return fmt.Errorf("%w: %s", ErrUnauthorized, message)
		}
		return ErrUnauthorized
	case 404:
		if message != "" {
			return fmt.Errorf("%w: %s", ErrNotFound, message)
		}
		return ErrNotFound
	case 429:
		return ErrRateLimited
	default:
		return &APIError{StatusCode: status, Message: message}
	}
}
