// Package api implements the cache.overflow backend client: a single-request
// engine that classifies every outcome into a structured category, and a
// retrying wrapper that exposes one method per backend operation.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 10 * 1024 * 1024

	defaultTimeout = 30 * time.Second
)

// Client talks to the cache.overflow backend API.
// It is stateless per call and safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	token      string
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger
}

// ClientConfig holds the construction parameters for a Client.
type ClientConfig struct {
	// BaseURL must be a well-formed absolute URL, e.g.
	// "https://cache-overflow.onrender.com/api".
	BaseURL string
	// Token is the optional bearer credential.
	Token string
	// Timeout is the per-attempt deadline. Defaults to 30s.
	Timeout time.Duration
	// Logger receives per-attempt diagnostics. Defaults to a nop logger.
	Logger *zap.Logger
}

// NewClient validates the base URL and builds a client. A malformed base URL
// is a configuration error and fails fast here rather than on first use.
func NewClient(cfg ClientConfig) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: must be absolute", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    u,
		token:      cfg.Token,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// CloseIdleConnections releases any keep-alive connections held by the
// underlying transport.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// endpoint joins the base URL with a path (which may carry a query string).
// Both the decoded and the escaped forms are carried over so percent-encoded
// segments (e.g. a PathEscape'd ID containing "/") survive the join.
func (c *Client) endpoint(path string) string {
	rel, err := url.Parse(path)
	if err != nil {
		// Paths are built internally from escaped components; a parse
		// failure here means a programming error, not user input.
		return c.baseURL.String() + path
	}
	u := *c.baseURL
	u.Path = strings.TrimSuffix(c.baseURL.Path, "/") + rel.Path
	u.RawPath = strings.TrimSuffix(c.baseURL.EscapedPath(), "/") + rel.EscapedPath()
	u.RawQuery = rel.RawQuery
	return u.String()
}

// do executes exactly one HTTP request and normalizes the outcome.
//
// A successful request returns the raw JSON payload. Every failure returns a
// *APIError whose Category drives the caller's retry decision:
//   - transport errors  -> CategoryNetwork
//   - deadline expiry   -> CategoryTimeout
//   - HTTP 429          -> CategoryRateLimit, with the Retry-After value
//   - HTTP 401/403      -> CategoryAuth
//   - other HTTP 4xx    -> CategoryRequest
//   - HTTP 5xx          -> CategoryServer
//   - non-JSON body     -> CategoryMalformed, carrying the raw text
func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, transportError(ctx, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &APIError{
			Category:   CategoryRateLimit,
			Status:     resp.StatusCode,
			Message:    "rate limit exceeded",
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	// Read the body as text first; a body that is not valid JSON is
	// terminal regardless of status, carrying the raw text as the message.
	if !json.Valid(raw) {
		return nil, &APIError{
			Category: CategoryMalformed,
			Status:   resp.StatusCode,
			Message:  strings.TrimSpace(string(raw)),
		}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return json.RawMessage(raw), nil
	}

	var errBody struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(raw, &errBody)
	msg := errBody.Error
	if msg == "" {
		msg = fmt.Sprintf("request failed with status %d", resp.StatusCode)
	}

	return nil, &APIError{
		Category: classifyStatus(resp.StatusCode),
		Status:   resp.StatusCode,
		Message:  msg,
	}
}

// transportError classifies a failure to establish or complete the
// connection. Deadline expiry is reported distinctly so callers can give
// targeted guidance.
func transportError(ctx context.Context, err error) *APIError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &APIError{
			Category: CategoryTimeout,
			Message:  "request deadline exceeded",
			Err:      err,
		}
	}
	return &APIError{
		Category: CategoryNetwork,
		Message:  "request failed",
		Err:      err,
	}
}

// parseRetryAfter reads a Retry-After header value in seconds.
// Absent or unparseable values fall back to 60s.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return defaultRetryAfter
	}
	secs, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || secs < 0 {
		return defaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}
