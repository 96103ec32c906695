package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, baseURL string, timeout time.Duration) *Client {
	t.Helper()
	c, err := NewClient(ClientConfig{
		BaseURL: baseURL,
		Token:   "co_test_token",
		Timeout: timeout,
		Logger:  zap.NewNop(),
	})
	require.NoError(t, err)
	t.Cleanup(c.CloseIdleConnections)
	return c
}

func TestNewClient_RejectsMalformedBaseURL(t *testing.T) {
	cases := []string{
		"",
		"not-a-url",
		"http://",
		"://missing-scheme",
		"/relative/path",
	}
	for _, raw := range cases {
		_, err := NewClient(ClientConfig{BaseURL: raw})
		assert.Error(t, err, "base URL %q should be rejected", raw)
	}
}

func TestNewClient_AcceptsAbsoluteURL(t *testing.T) {
	c, err := NewClient(ClientConfig{BaseURL: "https://cache-overflow.onrender.com/api"})
	require.NoError(t, err)
	assert.Equal(t,
		"https://cache-overflow.onrender.com/api/solutions/search?query=hello+world",
		c.endpoint("/solutions/search?query=hello+world"))
}

func TestEndpoint_PreservesEscapedPathSegments(t *testing.T) {
	c, err := NewClient(ClientConfig{BaseURL: "https://cache-overflow.onrender.com/api"})
	require.NoError(t, err)

	// An escaped "/" inside an ID must stay one path segment end to end.
	path := "/solutions/" + url.PathEscape("sol/../001") + "/unlock"
	assert.Equal(t,
		"https://cache-overflow.onrender.com/api/solutions/sol%2F..%2F001/unlock",
		c.endpoint(path))
}

func TestDo_SuccessReturnsPayloadUnchanged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer co_test_token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"sol_1","upvotes":3}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)
	payload, err := c.do(context.Background(), http.MethodGet, "/anything", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"sol_1","upvotes":3}`, string(payload))
}

func TestDo_ClassifiesHTTPFailures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		category Category
		message  string
	}{
		{"bad request", 400, `{"error":"missing query"}`, CategoryRequest, "missing query"},
		{"unauthorized", 401, `{"error":"invalid token"}`, CategoryAuth, "invalid token"},
		{"forbidden", 403, `{"error":"blocked"}`, CategoryAuth, "blocked"},
		{"not found", 404, `{"error":"no such solution"}`, CategoryRequest, "no such solution"},
		{"server error", 500, `{"error":"boom"}`, CategoryServer, "boom"},
		{"bad gateway", 502, `{}`, CategoryServer, "request failed with status 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := newTestClient(t, srv.URL, time.Second)
			_, err := c.do(context.Background(), http.MethodGet, "/x", nil)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.category, apiErr.Category)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.message, apiErr.Message)
		})
	}
}

func TestDo_RateLimitCarriesRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)
	_, err := c.do(context.Background(), http.MethodGet, "/x", nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CategoryRateLimit, apiErr.Category)
	assert.Equal(t, 7*time.Second, apiErr.RetryAfter)
	assert.True(t, apiErr.Retryable())
}

func TestDo_RateLimitDefaultsRetryAfter(t *testing.T) {
	for _, header := range []string{"", "soon", "-3"} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if header != "" {
				w.Header().Set("Retry-After", header)
			}
			w.WriteHeader(http.StatusTooManyRequests)
		}))

		c := newTestClient(t, srv.URL, time.Second)
		_, err := c.do(context.Background(), http.MethodGet, "/x", nil)
		srv.Close()

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 60*time.Second, apiErr.RetryAfter, "header %q", header)
	}
}

func TestDo_NonJSONBodyIsMalformedAndTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html>gateway error page</html>"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)
	_, err := c.do(context.Background(), http.MethodGet, "/x", nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CategoryMalformed, apiErr.Category)
	assert.Equal(t, "<html>gateway error page</html>", apiErr.Message)
	assert.False(t, apiErr.Retryable())
}

func TestDo_TimeoutIsDistinctFromNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 50*time.Millisecond)
	_, err := c.do(context.Background(), http.MethodGet, "/slow", nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CategoryTimeout, apiErr.Category)
	assert.True(t, apiErr.Retryable())
}

func TestDo_ConnectionRefusedIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	c := newTestClient(t, srv.URL, time.Second)
	_, err := c.do(context.Background(), http.MethodGet, "/x", nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CategoryNetwork, apiErr.Category)
	assert.True(t, apiErr.Retryable())
	assert.Error(t, errors.Unwrap(apiErr))
}

func TestDo_MarshalsRequestBody(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)
	_, err := c.do(context.Background(), http.MethodPost, "/x", map[string]bool{"is_safe": true})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"is_safe": true}, got)
}
