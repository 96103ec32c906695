// Package remoteconfig fetches the tool/prompt configuration bundle from the
// cache.overflow backend, caches it with a TTL, and gates acceptance on the
// bundle's schema major version.
//
// The service is strict: once its retry budget is exhausted, FetchConfig
// returns an error and the caller falls back to its own hardcoded
// definitions. It never returns a partially-validated bundle.
package remoteconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// SupportedSchemaVersion is the single schema version this build
	// understands. Only the major component gates acceptance.
	SupportedSchemaVersion = "1.0.0"

	cacheTTL          = 5 * time.Minute
	fetchTimeout      = 5 * time.Second
	maxFetchAttempts  = 3
	fetchBackoffBase  = 100 * time.Millisecond
	configPath        = "/mcp/config"
	maxConfigBodySize = 4 * 1024 * 1024
)

// ErrSchemaMismatch is returned when the served bundle's major schema
// version differs from the supported one. Re-fetching identical content
// cannot change the version, so this ends the fetch cycle immediately.
var ErrSchemaMismatch = errors.New("config schema version mismatch")

type cachedBundle struct {
	data      *Bundle
	fetchedAt time.Time
}

// Service fetches and caches the remote configuration bundle.
// It is constructed once by the composition root and shared; all methods
// are safe for concurrent use. A cache miss triggers at most one in-flight
// backend fetch - concurrent callers await its result.
type Service struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger

	ttl         time.Duration
	perAttempt  time.Duration
	maxAttempts int

	mu     sync.Mutex
	cached *cachedBundle
	group  singleflight.Group

	// now is swappable for TTL tests.
	now func() time.Time
}

// Option adjusts Service construction. Used by tests to shrink timeouts.
type Option func(*Service)

// WithTTL overrides the cache TTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// WithAttemptTimeout overrides the per-attempt fetch timeout.
func WithAttemptTimeout(d time.Duration) Option {
	return func(s *Service) { s.perAttempt = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds a config service for the given backend base URL.
func NewService(baseURL string, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		httpClient:  &http.Client{},
		logger:      logger,
		ttl:         cacheTTL,
		perAttempt:  fetchTimeout,
		maxAttempts: maxFetchAttempts,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchConfig returns the current configuration bundle. A cached bundle
// younger than the TTL is returned without any network call; otherwise up
// to three fetch attempts run with exponential backoff, each bounded by a
// 5-second timeout. A schema-version mismatch is terminal for the cycle
// and never replaces an existing cache entry.
func (s *Service) FetchConfig(ctx context.Context) (*Bundle, error) {
	if b := s.fresh(); b != nil {
		return b, nil
	}

	// Single-flight: concurrent callers arriving during a miss share one
	// backend fetch instead of issuing duplicates.
	v, err, _ := s.group.Do("config", func() (any, error) {
		if b := s.fresh(); b != nil {
			return b, nil
		}
		return s.fetchAndStore(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Bundle), nil
}

// InvalidateCache clears the cached bundle unconditionally, forcing the
// next FetchConfig to hit the network.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

// fresh returns the cached bundle if it is younger than the TTL.
func (s *Service) fresh() *Bundle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil && s.now().Sub(s.cached.fetchedAt) < s.ttl {
		return s.cached.data
	}
	return nil
}

func (s *Service) fetchAndStore(ctx context.Context) (*Bundle, error) {
	var lastErr error

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := fetchBackoffBase
			for i := 0; i < attempt; i++ {
				delay *= 3
			}
			s.logger.Info("retrying config fetch",
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", s.maxAttempts),
				zap.Duration("delay", delay))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		bundle, err := s.fetchOnce(ctx)
		if err == nil {
			s.mu.Lock()
			s.cached = &cachedBundle{data: bundle, fetchedAt: s.now()}
			s.mu.Unlock()

			s.logger.Info("fetched remote config",
				zap.String("schema_version", bundle.SchemaVersion),
				zap.Int("tool_count", len(bundle.Tools)),
				zap.Int("prompt_count", len(bundle.Prompts)),
				zap.Bool("has_instructions", bundle.Instructions != ""))
			return bundle, nil
		}

		lastErr = err
		s.logger.Warn("config fetch attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		// Re-fetching identically served content will not change its
		// schema version, so a mismatch ends the cycle.
		if errors.Is(err, ErrSchemaMismatch) {
			break
		}
	}

	return nil, fmt.Errorf("failed to fetch remote config: %w", lastErr)
}

// fetchOnce performs a single bounded GET /mcp/config and validates the
// schema gate.
func (s *Service) fetchOnce(ctx context.Context) (*Bundle, error) {
	ctx, cancel := context.WithTimeout(ctx, s.perAttempt)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+configPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("config fetch timed out after %s: %w", s.perAttempt, err)
		}
		return nil, fmt.Errorf("config fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("config fetch failed: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxConfigBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read config response: %w", err)
	}

	var bundle Bundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return nil, fmt.Errorf("failed to parse config response: %w", err)
	}

	if !schemaCompatible(bundle.SchemaVersion) {
		return nil, fmt.Errorf("%w: expected major of %s, got %q",
			ErrSchemaMismatch, SupportedSchemaVersion, bundle.SchemaVersion)
	}

	return &bundle, nil
}

// schemaCompatible compares the major component (segment before the first
// dot) against the supported version's major.
func schemaCompatible(version string) bool {
	major, _, _ := strings.Cut(version, ".")
	supportedMajor, _, _ := strings.Cut(SupportedSchemaVersion, ".")
	return major != "" && major == supportedMajor
}
