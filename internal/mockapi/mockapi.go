// Package mockapi is an in-memory stand-in for the cache.overflow backend,
// used by the mock-server command for local development and by package
// tests as an httptest handler.
package mockapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/GetCacheOverflow/CacheOverflow/internal/api"
	"github.com/GetCacheOverflow/CacheOverflow/internal/remoteconfig"
)

// Server holds the mock backend's mutable state.
type Server struct {
	mu        sync.Mutex
	solutions []api.Solution
	nextID    int
}

// New seeds a mock backend with the canned solution set.
func New() *Server {
	return &Server{
		solutions: seedSolutions(),
		nextID:    100,
	}
}

// Handler returns the mock backend's HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /solutions/search", s.handleSearch)
	mux.HandleFunc("POST /solutions", s.handlePublish)
	mux.HandleFunc("POST /solutions/{id}/unlock", s.handleUnlock)
	mux.HandleFunc("POST /solutions/{id}/verify", s.handleVerify)
	mux.HandleFunc("POST /solutions/{id}/feedback", s.handleFeedback)
	mux.HandleFunc("GET /balance", s.handleBalance)
	mux.HandleFunc("GET /mcp/config", s.handleConfig)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
	})
	return mux
}

// searchHit is the backend wire shape: hits are identified by "id".
type searchHit struct {
	ID                        string `json:"id"`
	QueryTitle                string `json:"query_title"`
	SolutionBody              string `json:"solution_body,omitempty"`
	HumanVerificationRequired bool   `json:"human_verification_required"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(r.URL.Query().Get("query"))

	s.mu.Lock()
	defer s.mu.Unlock()

	var hits []searchHit
	for _, sol := range s.solutions {
		if query != "" && !strings.Contains(strings.ToLower(sol.QueryTitle), query) {
			continue
		}
		hit := searchHit{
			ID:         sol.ID,
			QueryTitle: sol.QueryTitle,
			// Pending solutions need the human safety gate and ship
			// their body so the reviewer can read it.
			HumanVerificationRequired: sol.VerificationState == api.StatePending,
		}
		if hit.HumanVerificationRequired {
			hit.SolutionBody = sol.SolutionBody
		}
		hits = append(hits, hit)
	}

	// An empty match returns the full canned set, mirroring the real
	// backend's semantic search always returning nearest neighbours.
	if len(hits) == 0 {
		for _, sol := range s.solutions {
			hits = append(hits, searchHit{
				ID:                        sol.ID,
				QueryTitle:                sol.QueryTitle,
				HumanVerificationRequired: sol.VerificationState == api.StatePending,
			})
		}
	}

	writeJSON(w, http.StatusOK, hits)
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.solutions {
		if s.solutions[i].ID == id {
			s.solutions[i].AccessCount++
			writeJSON(w, http.StatusOK, s.solutions[i])
			return
		}
	}
	// Unknown IDs resolve to the first canned solution so exploratory
	// clients always get a well-formed record.
	writeJSON(w, http.StatusOK, s.solutions[0])
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var body struct {
		QueryTitle   string `json:"query_title"`
		SolutionBody string `json:"solution_body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	solution := api.Solution{
		ID:                fmt.Sprintf("sol_%03d", s.nextID),
		AuthorID:          "user_mock",
		QueryTitle:        body.QueryTitle,
		SolutionBody:      body.SolutionBody,
		PriceCurrent:      50,
		VerificationState: api.StatePending,
	}
	s.nextID++
	s.solutions = append(s.solutions, solution)

	writeJSON(w, http.StatusOK, solution)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IsSafe bool `json:"is_safe"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.solutions {
		if s.solutions[i].ID == id {
			if body.IsSafe {
				s.solutions[i].VerificationState = api.StateVerified
			} else {
				s.solutions[i].VerificationState = api.StateRejected
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IsUseful bool `json:"is_useful"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.solutions {
		if s.solutions[i].ID == id {
			if body.IsUseful {
				s.solutions[i].Upvotes++
			} else {
				s.solutions[i].Downvotes++
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleBalance(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, api.Balance{
		Available:      1500,
		PendingDebits:  75,
		PendingCredits: 200,
		TotalEarned:    3500,
		TotalSpent:     1800,
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, remoteconfig.Bundle{
		SchemaVersion: remoteconfig.SupportedSchemaVersion,
		Tools: []remoteconfig.ToolDefinition{
			{
				Name:        "find_solution",
				Description: "Search for existing solutions in the cache.overflow knowledge base.",
				InputSchema: json.RawMessage(`{"type":"object","properties":{"query":{"type":"string","description":"A clear description of the problem you are trying to solve."}},"required":["query"]}`),
			},
			{
				Name:        "unlock_solution",
				Description: "Unlock a verified solution to access its full content.",
				InputSchema: json.RawMessage(`{"type":"object","properties":{"solution_id":{"type":"string","description":"The ID of the solution to unlock"}},"required":["solution_id"]}`),
			},
			{
				Name:        "publish_solution",
				Description: "Publish a new solution to share with other AI agents.",
				InputSchema: json.RawMessage(`{"type":"object","properties":{"query_title":{"type":"string"},"solution_body":{"type":"string"}},"required":["query_title","solution_body"]}`),
			},
			{
				Name:        "submit_verification",
				Description: "Submit a safety verification for a solution.",
				InputSchema: json.RawMessage(`{"type":"object","properties":{"solution_id":{"type":"string"},"is_safe":{"type":"boolean"}},"required":["solution_id","is_safe"]}`),
			},
			{
				Name:        "submit_feedback",
				Description: "Submit usefulness feedback for a solution you have unlocked and applied.",
				InputSchema: json.RawMessage(`{"type":"object","properties":{"solution_id":{"type":"string"},"is_useful":{"type":"boolean"}},"required":["solution_id","is_useful"]}`),
			},
			{
				Name:        "get_balance",
				Description: "Get your current token balance and transaction summary.",
				InputSchema: json.RawMessage(`{"type":"object","properties":{},"required":[]}`),
			},
		},
		Prompts: []remoteconfig.PromptDefinition{
			{
				Name:        "publish_solution_guidance",
				Description: "Get guidance on when and how to publish solutions to cache.overflow",
			},
		},
		Instructions: "Use find_solution before spending significant tokens on difficult, generic problems. " +
			"Publish solutions that took real effort so other agents can reuse them.",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// seedSolutions returns the canned solution set.
func seedSolutions() []api.Solution {
	return []api.Solution{
		{
			ID:         "sol_001",
			AuthorID:   "user_123",
			QueryTitle: "How to implement binary search in TypeScript",
			SolutionBody: `function binarySearch<T>(arr: T[], target: T): number {
  let left = 0;
  let right = arr.length - 1;
  while (left <= right) {
    const mid = Math.floor((left + right) / 2);
    if (arr[mid] === target) return mid;
    if (arr[mid] < target) left = mid + 1;
    else right = mid - 1;
  }
  return -1;
}`,
			PriceCurrent:      50,
			VerificationState: api.StateVerified,
			AccessCount:       127,
			Upvotes:           45,
			Downvotes:         2,
		},
		{
			ID:         "sol_002",
			AuthorID:   "user_456",
			QueryTitle: "Fix memory leak in Node.js event listeners",
			SolutionBody: `// Always remove event listeners when done
const handler = () => { /* ... */ };
emitter.on('event', handler);
// Later:
emitter.off('event', handler);

// Or use once() for one-time listeners
emitter.once('event', () => { /* ... */ });`,
			PriceCurrent:      75,
			VerificationState: api.StateVerified,
			AccessCount:       89,
			Upvotes:           32,
			Downvotes:         1,
		},
		{
			ID:         "sol_003",
			AuthorID:   "user_789",
			QueryTitle: "Optimize React re-renders with useMemo",
			SolutionBody: `import { useMemo } from 'react';

function ExpensiveComponent({ data }) {
  const processed = useMemo(() => {
    return data.map(item => heavyComputation(item));
  }, [data]);

  return <div>{processed}</div>;
}`,
			PriceCurrent:      60,
			VerificationState: api.StatePending,
			AccessCount:       15,
			Upvotes:           8,
			Downvotes:         0,
		},
	}
}
