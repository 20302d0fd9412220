package youtube

import (
	"errors"
	"fmt"
)

var (
	// ErrVideoNotFound covers empty results and items missing required fields
	ErrVideoNotFound = errors.New("video not found")

	// ErrMalformedResponse is returned when the body is not valid JSON
	ErrMalformedResponse = errors.New("malformed youtube api response")

	// ErrMissingAPIKey is returned by NewClient without a key
	ErrMissingAPIKey = errors.New("youtube api key is required")
)

// APIError is a non-2xx answer from the upstream API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("youtube api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("youtube api returned status %d: %s", e.StatusCode, e.Message)
}

// Retryable reports whether the request may succeed if repeated
func (e *APIError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}
