package inference

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrNoAPIKey is returned when API key is required but missing.
	ErrNoAPIKey = errors.New("inference: API key required")

	// ErrEmptyPrompt is returned when a request has no prompt.
	ErrEmptyPrompt = errors.New("inference: prompt required")

	// ErrEmptyResponse is returned when the provider returns no content.
	ErrEmptyResponse = errors.New("inference: empty response from provider")

	// ErrProviderUnavailable is returned when no providers are available.
	ErrProviderUnavailable = errors.New("inference: provider unavailable")

	// ErrAllProvidersFailed is returned when all providers in a chain fail.
	ErrAllProvidersFailed = errors.New("inference: all providers failed")
)

// APIError represents an error response from an inference API.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the error message from the API.
	Message string

	// Provider identifies which provider returned the error.
	Provider string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("inference [%s]: API error %d: %s",
		e.Provider, e.StatusCode, e.Message)
}

// IsRateLimited returns true if this is a rate limit error (HTTP 429).
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == 429
}

// IsUnauthorized returns true if this is an authentication error (HTTP 401).
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == 401
}

// IsServerError returns true if this is a server-side error (HTTP 5xx).
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// ProviderError wraps an error with provider context.
type ProviderError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("inference [%s]: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with provider context.
func WrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Err: err}
}
