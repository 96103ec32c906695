package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// maxAttempts bounds every logical operation.
	maxAttempts = 3
	// backoffBase scales the deterministic 3^n exponential backoff:
	// 0ms before the first attempt, then 300ms, then 900ms. No jitter;
	// acceptable at this concurrency level.
	backoffBase = 100 * time.Millisecond
)

// backoffDelay returns the wait before attempt n (0-based).
func backoffDelay(attempt int) time.Duration {
	if attempt == 0 {
		return 0
	}
	delay := backoffBase
	for i := 0; i < attempt; i++ {
		delay *= 3
	}
	return delay
}

// call runs one logical operation: up to maxAttempts requests with backoff
// in between. Only transient failures (network, timeout, rate limit, 5xx)
// are retried; everything else surfaces immediately. Individual attempt
// failures are logged, never surfaced - callers see only the final outcome.
func (c *Client) call(ctx context.Context, op, method, path string, body any) (json.RawMessage, error) {
	reqID := uuid.NewString()
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if delay := backoffDelay(attempt); delay > 0 {
			c.logger.Info("retrying request",
				zap.String("operation", op),
				zap.String("request_id", reqID),
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", maxAttempts),
				zap.Duration("delay", delay))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		payload, err := c.do(ctx, method, path, body)
		if err == nil {
			return payload, nil
		}
		lastErr = err

		var apiErr *APIError
		if errors.As(err, &apiErr) {
			c.logger.Warn("request attempt failed",
				zap.String("operation", op),
				zap.String("request_id", reqID),
				zap.String("path", path),
				zap.Int("status", apiErr.Status),
				zap.String("category", string(apiErr.Category)),
				zap.Int("attempt", attempt+1))
			if !apiErr.Retryable() {
				return nil, err
			}
		} else {
			return nil, err
		}
	}

	c.logger.Error("request failed after retries",
		zap.String("operation", op),
		zap.String("request_id", reqID),
		zap.String("path", path),
		zap.Error(lastErr))
	return nil, fmt.Errorf("%s failed after %d attempts: %w", op, maxAttempts, lastErr)
}

// FindSolution searches the knowledge base. Backend hits identify solutions
// by "id"; the caller-facing shape renames that to "solution_id" and passes
// every other field through unchanged.
func (c *Client) FindSolution(ctx context.Context, query string) ([]FindSolutionResult, error) {
	path := "/solutions/search?query=" + url.QueryEscape(query)
	payload, err := c.call(ctx, "find_solution", http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var hits []searchHit
	if err := json.Unmarshal(payload, &hits); err != nil {
		return nil, fmt.Errorf("unexpected search response shape: %w", err)
	}

	results := make([]FindSolutionResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, FindSolutionResult{
			SolutionID:                h.ID,
			QueryTitle:                h.QueryTitle,
			SolutionBody:              h.SolutionBody,
			HumanVerificationRequired: h.HumanVerificationRequired,
		})
	}
	return results, nil
}

// UnlockSolution pays for access to a solution's full content.
func (c *Client) UnlockSolution(ctx context.Context, solutionID string) (*Solution, error) {
	path := "/solutions/" + url.PathEscape(solutionID) + "/unlock"
	payload, err := c.call(ctx, "unlock_solution", http.MethodPost, path, nil)
	if err != nil {
		return nil, err
	}

	var solution Solution
	if err := json.Unmarshal(payload, &solution); err != nil {
		return nil, fmt.Errorf("unexpected unlock response shape: %w", err)
	}
	return &solution, nil
}

// PublishSolution submits a new solution; it starts in PENDING state.
func (c *Client) PublishSolution(ctx context.Context, queryTitle, solutionBody string) (*Solution, error) {
	body := map[string]string{
		"query_title":   queryTitle,
		"solution_body": solutionBody,
	}
	payload, err := c.call(ctx, "publish_solution", http.MethodPost, "/solutions", body)
	if err != nil {
		return nil, err
	}

	var solution Solution
	if err := json.Unmarshal(payload, &solution); err != nil {
		return nil, fmt.Errorf("unexpected publish response shape: %w", err)
	}
	return &solution, nil
}

// SubmitVerification records a human safety verdict for a solution.
func (c *Client) SubmitVerification(ctx context.Context, solutionID string, isSafe bool) error {
	path := "/solutions/" + url.PathEscape(solutionID) + "/verify"
	_, err := c.call(ctx, "submit_verification", http.MethodPost, path, map[string]bool{"is_safe": isSafe})
	return err
}

// SubmitFeedback records whether an unlocked solution was actually useful.
func (c *Client) SubmitFeedback(ctx context.Context, solutionID string, isUseful bool) error {
	path := "/solutions/" + url.PathEscape(solutionID) + "/feedback"
	_, err := c.call(ctx, "submit_feedback", http.MethodPost, path, map[string]bool{"is_useful": isUseful})
	return err
}

// GetBalance returns the caller's token balance summary.
func (c *Client) GetBalance(ctx context.Context) (*Balance, error) {
	payload, err := c.call(ctx, "get_balance", http.MethodGet, "/balance", nil)
	if err != nil {
		return nil, err
	}

	var balance Balance
	if err := json.Unmarshal(payload, &balance); err != nil {
		return nil, fmt.Errorf("unexpected balance response shape: %w", err)
	}
	return &balance, nil
}
