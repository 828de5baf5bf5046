package x

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/custodia-labs/xbm/internal/core/domain"
)

// RateLimitError represents a rate limit exceeded error with reset time.
type RateLimitError struct {
	ResetAt   time.Time
	Remaining int
	Limit     int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("x: rate limit exceeded, resets at %s", e.ResetAt.Format(time.RFC3339))
}

// APIError represents an X API error response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("x: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// TransportError represents a failure to complete the HTTP exchange.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("x: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	var rateLimitErr *RateLimitError
	return errors.As(err, &rateLimitErr)
}

// IsServerError checks if the error is a 5xx API response.
func IsServerError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	return false
}

// IsTransient reports whether retrying the request may succeed.
func IsTransient(err error) bool {
	if IsRateLimited(err) || IsServerError(err) {
		return true
	}
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

// statusError builds the error for a non-200 response.
// Authentication failures wrap domain.ErrAuth so the pipeline aborts on them.
func statusError(resp *http.Response, body []byte) error {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    errorMessage(body, resp.Status),
	}
	if resp.Request != nil && resp.Request.URL != nil {
		apiErr.URL = resp.Request.URL.Redacted()
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", domain.ErrAuth, apiErr)
	default:
		return apiErr
	}
}

// errorMessage pulls a human readable message out of an error body.
// The API uses problem+json ("detail", "title") or an "errors" array.
func errorMessage(body []byte, fallback string) string {
	if !gjson.ValidBytes(body) {
		return fallback
	}
	for _, path := range []string{"detail", "title", "errors.0.message", "errors.0.detail"} {
		if v := gjson.GetBytes(body, path); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return fallback
}
