package eutils

import (
	"errors"
	"fmt"
)

// Common errors returned by the E-utilities client.
var (
	// ErrNotFound indicates no matching records in PubMed.
	ErrNotFound = errors.New("not found in PubMed")

	// ErrAuthError indicates a rejected API key.
	ErrAuthError = errors.New("PubMed authentication error")

	// ErrRateLimited indicates NCBI rejected the request for exceeding
	// the per-key rate ceiling. Suggests increasing the request interval.
	ErrRateLimited = errors.New("PubMed rate limit exceeded (consider a longer request interval)")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with PubMed")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response from PubMed")
)

// APIError represents an HTTP-level error from the E-utilities API.
type APIError struct {
	StatusCode int
	Message    string
	Query      string // For context in search errors
}

func (e *APIError) Error() string {
	if e.Query != "" {
		return fmt.Sprintf("PubMed API error (status %d): %s (query: %s)", e.StatusCode, e.Message, e.Query)
	}
	return fmt.Sprintf("PubMed API error (status %d): %s", e.StatusCode, e.Message)
}

// IsNotFound returns true if the error indicates no matching records.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// IsAuthError returns true if the error indicates a credential problem.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrAuthError) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401 || apiErr.StatusCode == 403
	}
	return false
}
