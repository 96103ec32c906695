// Package tools wires the cache.overflow backend operations into MCP tool
// definitions. Definitions normally come from the remote config bundle,
// matched to local handlers by name; when the config service is
// unavailable the builtin definitions are used instead.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/GetCacheOverflow/CacheOverflow/internal/api"
	"github.com/GetCacheOverflow/CacheOverflow/internal/dialog"
	"github.com/GetCacheOverflow/CacheOverflow/internal/remoteconfig"
)

// Definition pairs an MCP tool with its handler.
type Definition struct {
	Tool    mcp.Tool
	Handler server.ToolHandlerFunc
}

// VerifyFunc shows the human verification dialog for one solution and
// returns the verdict. Injected so tests can answer without a browser.
type VerifyFunc func(ctx context.Context, title, body string) (dialog.Verdict, error)

// Registry resolves tool definitions and owns their handlers.
type Registry struct {
	client *api.Client
	remote *remoteconfig.Service
	verify VerifyFunc
	logger *zap.Logger
}

// NewRegistry builds the tool registry. remote may be nil, in which case
// only builtin definitions are served.
func NewRegistry(client *api.Client, remote *remoteconfig.Service, verify VerifyFunc, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		client: client,
		remote: remote,
		verify: verify,
		logger: logger,
	}
}

// Definitions returns the tools to expose. Remote definitions win when the
// config service delivers a bundle; remote tools without a local handler
// are skipped so the backend can stage future tools. On config failure the
// builtin set is the fallback.
func (r *Registry) Definitions(ctx context.Context) []Definition {
	handlers := r.handlers()

	if r.remote != nil {
		bundle, err := r.remote.FetchConfig(ctx)
		if err == nil {
			var defs []Definition
			for _, remote := range bundle.Tools {
				handler, ok := handlers[remote.Name]
				if !ok {
					r.logger.Debug("skipping remote tool without local handler",
						zap.String("tool", remote.Name))
					continue
				}
				defs = append(defs, Definition{
					Tool: mcp.Tool{
						Name:           remote.Name,
						Description:    remote.Description,
						RawInputSchema: remote.InputSchema,
					},
					Handler: handler,
				})
			}
			if len(defs) > 0 {
				return defs
			}
		} else {
			r.logger.Warn("remote config unavailable, using builtin tool definitions", zap.Error(err))
		}
	}

	return r.builtin()
}

func (r *Registry) handlers() map[string]server.ToolHandlerFunc {
	return map[string]server.ToolHandlerFunc{
		"find_solution":       r.handleFindSolution,
		"unlock_solution":     r.handleUnlockSolution,
		"publish_solution":    r.handlePublishSolution,
		"submit_verification": r.handleSubmitVerification,
		"submit_feedback":     r.handleSubmitFeedback,
		"get_balance":         r.handleGetBalance,
	}
}

func (r *Registry) handleFindSolution(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results, err := r.client.FindSolution(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}

	// Unverified hits go through the human safety gate. A verdict (either
	// way) is submitted; no answer means the user never weighed in.
	for _, hit := range results {
		if !hit.HumanVerificationRequired {
			continue
		}
		verdict, err := r.verify(ctx, hit.QueryTitle, hit.SolutionBody)
		if err != nil {
			r.logger.Warn("verification dialog failed",
				zap.String("solution_id", hit.SolutionID), zap.Error(err))
			continue
		}
		if verdict == dialog.NoAnswer {
			continue
		}
		if err := r.client.SubmitVerification(ctx, hit.SolutionID, verdict == dialog.Safe); err != nil {
			r.logger.Warn("failed to submit verification",
				zap.String("solution_id", hit.SolutionID), zap.Error(err))
		}
	}

	payload, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload) + searchGuidance(results)), nil
}

func (r *Registry) handleUnlockSolution(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	solutionID, err := req.RequireString("solution_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	solution, err := r.client.UnlockSolution(ctx, solutionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}
	payload, err := json.MarshalIndent(solution, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (r *Registry) handlePublishSolution(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	queryTitle, err := req.RequireString("query_title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	solutionBody, err := req.RequireString("solution_body")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	solution, err := r.client.PublishSolution(ctx, queryTitle, solutionBody)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}
	payload, err := json.MarshalIndent(solution, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}
	return mcp.NewToolResultText("Solution published successfully!\n" + string(payload)), nil
}

func (r *Registry) handleSubmitVerification(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	solutionID, err := req.RequireString("solution_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	isSafe, ok := req.GetArguments()["is_safe"].(bool)
	if !ok {
		return mcp.NewToolResultError("is_safe must be a boolean"), nil
	}

	if err := r.client.SubmitVerification(ctx, solutionID, isSafe); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}
	return mcp.NewToolResultText("Verification submitted successfully!"), nil
}

func (r *Registry) handleSubmitFeedback(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	solutionID, err := req.RequireString("solution_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	isUseful, ok := req.GetArguments()["is_useful"].(bool)
	if !ok {
		return mcp.NewToolResultError("is_useful must be a boolean"), nil
	}

	if err := r.client.SubmitFeedback(ctx, solutionID, isUseful); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}
	return mcp.NewToolResultText("Feedback submitted successfully!"), nil
}

func (r *Registry) handleGetBalance(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	balance, err := r.client.GetBalance(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}

	text := fmt.Sprintf(`Token Balance:
- Available: %d tokens
- Pending debits: %d tokens
- Pending credits: %d tokens
- Total earned: %d tokens
- Total spent: %d tokens`,
		balance.Available, balance.PendingDebits, balance.PendingCredits,
		balance.TotalEarned, balance.TotalSpent)
	return mcp.NewToolResultText(text), nil
}

// searchGuidance appends the workflow instructions the assistant should
// follow after a search, depending on what kinds of hits came back.
func searchGuidance(results []api.FindSolutionResult) string {
	if len(results) == 0 {
		return "\n\n💡 REMINDER: No existing solutions found. If you solve this problem and it " +
			"required significant effort (multiple iterations, substantial tokens), remember to " +
			"use publish_solution to help future agents!"
	}

	var needsVerification, hasVerified bool
	for _, s := range results {
		if s.HumanVerificationRequired {
			needsVerification = true
		} else {
			hasVerified = true
		}
	}

	var sb strings.Builder
	sb.WriteString("\n\n📋 NEXT STEPS:")

	if needsVerification {
		sb.WriteString("\n\n🔒 For solutions with human_verification_required=true (you already have the full solution body):")
		sb.WriteString("\n1. Verification has been handled via dialog - you can now use the solution")
		sb.WriteString("\n2. Try applying the solution (no unlock needed - you already have it)")
		sb.WriteString("\n3. MUST call submit_feedback with is_useful=true/false after trying the solution")
	}

	if hasVerified {
		sb.WriteString("\n\n🔓 For solutions with human_verification_required=false (you only have the title):")
		sb.WriteString("\n1. Assess the query_title to determine if it's relevant to your problem")
		sb.WriteString("\n2. If relevant, you MUST call unlock_solution with solution_id to get the full content")
		sb.WriteString("\n3. After unlocking and trying the solution, you MUST call submit_feedback with is_useful=true/false")
	}

	sb.WriteString("\n\n💡 TIP: If none of these solutions work and you find a different approach that works, " +
		"consider using publish_solution to share your solution.")
	return sb.String()
}
