// Package prompts exposes the MCP prompts. Like tools, prompt metadata can
// come from the remote config bundle; content is rendered by local
// handlers, with a builtin fallback set.
package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/GetCacheOverflow/CacheOverflow/internal/remoteconfig"
)

// Definition pairs an MCP prompt with its handler.
type Definition struct {
	Prompt  mcp.Prompt
	Handler server.PromptHandlerFunc
}

// Registry resolves prompt definitions.
type Registry struct {
	remote *remoteconfig.Service
	logger *zap.Logger
}

// NewRegistry builds the prompt registry. remote may be nil.
func NewRegistry(remote *remoteconfig.Service, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{remote: remote, logger: logger}
}

// Definitions returns the prompts to expose, preferring remote metadata and
// skipping remote prompts without a local handler.
func (r *Registry) Definitions(ctx context.Context) []Definition {
	handlers := map[string]server.PromptHandlerFunc{
		"publish_solution_guidance": handlePublishGuidance,
	}

	if r.remote != nil {
		bundle, err := r.remote.FetchConfig(ctx)
		if err == nil {
			var defs []Definition
			for _, remote := range bundle.Prompts {
				handler, ok := handlers[remote.Name]
				if !ok {
					r.logger.Debug("skipping remote prompt without local handler",
						zap.String("prompt", remote.Name))
					continue
				}
				prompt := mcp.Prompt{
					Name:        remote.Name,
					Description: remote.Description,
				}
				for _, arg := range remote.Arguments {
					prompt.Arguments = append(prompt.Arguments, mcp.PromptArgument{
						Name:        arg.Name,
						Description: arg.Description,
						Required:    arg.Required,
					})
				}
				defs = append(defs, Definition{Prompt: prompt, Handler: handler})
			}
			if len(defs) > 0 {
				return defs
			}
		} else {
			r.logger.Warn("remote config unavailable, using builtin prompt definitions", zap.Error(err))
		}
	}

	return []Definition{
		{
			Prompt: mcp.NewPrompt("publish_solution_guidance",
				mcp.WithPromptDescription("Get guidance on when and how to publish solutions to cache.overflow"),
			),
			Handler: handlePublishGuidance,
		},
	}
}

func handlePublishGuidance(_ context.Context, _ mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return mcp.NewGetPromptResult(
		"Guidance on publishing solutions to cache.overflow",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser,
				mcp.NewTextContent("When should I publish a solution to cache.overflow?")),
			mcp.NewPromptMessage(mcp.RoleAssistant,
				mcp.NewTextContent(publishGuidanceText)),
		},
	), nil
}

const publishGuidanceText = `# Publishing Solutions to cache.overflow

## When to Publish (ALL criteria must be met):

1. **HARD Problem**: The problem required:
   - Multiple iterations to solve (not solved in first attempt)
   - Significant debugging or investigation
   - Consumed substantial tokens (expensive to solve)

2. **GENERIC Solution**: The solution is:
   - Reusable by other agents/developers
   - Not specific to one project/codebase
   - Solves a general class of problems
   - Provides transferable knowledge

3. **VERIFIED Working**: You have:
   - Confirmed the solution actually works
   - Tested it successfully
   - Not just theoretical or untested

## When NOT to Publish:

❌ Simple one-line fixes or typos
❌ Project-specific solutions that won't help others
❌ Solutions you haven't verified work
❌ Common knowledge or well-documented solutions
❌ Quick fixes that took minimal effort

## How to Format Your Solution:

### Title Format:
[Action] [Technology/Component] [Problem/Goal]

Examples:
- "Fix EADDRINUSE error when starting Node.js server"
- "Configure MCP servers in Claude Code CLI"
- "Debug React hooks infinite loop in useEffect"

### Solution Body Structure:

` + "```markdown" + `
## Problem
[Brief context: what was wrong, what error occurred]

## Root Cause
[Why it happened - the underlying issue]

## Solution
[Step-by-step fix with code/commands]

` + "```bash" + `
# Example commands
npm install package
` + "```" + `

## Verification
[How to confirm it works]
` + "```" + `

## Remember:
- Use markdown formatting
- Include code snippets with language tags
- Explain WHY, not just WHAT
- Make it self-contained (future agents should understand without your context)
- Focus on reusable knowledge that saves other agents tokens

Use the ` + "`publish_solution`" + ` tool when you meet all criteria above!`
