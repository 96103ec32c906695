package api

import (
	"fmt"
	"time"
)

// Category classifies a failed request so retry decisions never depend on
// matching error message text.
type Category string

const (
	// CategoryNetwork covers DNS failures, refused connections, and
	// transport errors mid-flight. Retryable.
	CategoryNetwork Category = "network"
	// CategoryTimeout means the per-attempt deadline expired. Retryable.
	CategoryTimeout Category = "timeout"
	// CategoryRateLimit is an HTTP 429. Retryable; carries RetryAfter.
	CategoryRateLimit Category = "rate_limit"
	// CategoryAuth is an HTTP 401/403. Terminal.
	CategoryAuth Category = "authentication"
	// CategoryRequest is any other 4xx. Terminal.
	CategoryRequest Category = "request"
	// CategoryServer is a 5xx. Retryable.
	CategoryServer Category = "server"
	// CategoryMalformed means the response body was not valid JSON. Terminal.
	CategoryMalformed Category = "malformed_response"
)

// defaultRetryAfter is used when a 429 arrives without a usable
// Retry-After header.
const defaultRetryAfter = 60 * time.Second

// APIError is the structured outcome of a failed backend request.
type APIError struct {
	Category Category
	// Status is the HTTP status code, or 0 for transport-level failures.
	Status int
	// Message is the backend "error" field, the raw body for malformed
	// responses, or a generic description.
	Message string
	// RetryAfter is the backend's suggested wait. Only set for rate limits.
	RetryAfter time.Duration
	// Err is the underlying transport error, when there is one.
	Err error
}

func (e *APIError) Error() string {
	switch {
	case e.Category == CategoryRateLimit:
		return fmt.Sprintf("%s error: %s (retry after %s)", e.Category, e.Message, e.RetryAfter)
	case e.Status > 0:
		return fmt.Sprintf("%s error (HTTP %d): %s", e.Category, e.Status, e.Message)
	default:
		return fmt.Sprintf("%s error: %s", e.Category, e.Message)
	}
}

func (e *APIError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is transient and worth another
// attempt. Client errors and malformed bodies are terminal.
func (e *APIError) Retryable() bool {
	switch e.Category {
	case CategoryNetwork, CategoryTimeout, CategoryRateLimit, CategoryServer:
		return true
	default:
		return false
	}
}

// classifyStatus maps a non-success HTTP status to a coarse category.
func classifyStatus(status int) Category {
	switch {
	case status >= 500:
		return CategoryServer
	case status == 401 || status == 403:
		return CategoryAuth
	default:
		return CategoryRequest
	}
}
