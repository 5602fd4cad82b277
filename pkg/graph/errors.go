package graph

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is an error response from the directory service. It carries the
// HTTP status code and the raw response body so callers can distinguish
// lookup misses from hard failures.
type APIError struct {
	Operation  string
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: directory returned %d: %s", e.Operation, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: directory returned %d", e.Operation, e.StatusCode)
}

// IsNotFound reports whether err is a directory 404 response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// StatusCode extracts the HTTP status from a directory error, or 0 when the
// error did not originate from an HTTP response.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
