package tools

import "github.com/mark3labs/mcp-go/mcp"

// builtin returns the hardcoded tool set used when the remote config
// bundle cannot be fetched. Kept in sync with the backend's served
// definitions by convention; the remote bundle wins whenever available.
func (r *Registry) builtin() []Definition {
	return []Definition{
		{
			Tool: mcp.NewTool("find_solution",
				mcp.WithDescription("Search for existing solutions in the cache.overflow knowledge base. "+
					"ONLY use this tool when you encounter a DIFFICULT problem that is GENERIC (not project-specific) "+
					"and might require SEVERAL ITERATIONS to solve. Do NOT use for simple fixes or quick tasks. "+
					"Returns matching solutions based on semantic similarity. Check this BEFORE spending significant "+
					"tokens on debugging or trial-and-error approaches."),
				mcp.WithString("query",
					mcp.Required(),
					mcp.Description("A clear description of the problem you are trying to solve. Be specific about "+
						"the technology, error message, or goal. Examples: \"EADDRINUSE error when starting Node.js "+
						"server\", \"configure MCP servers in Claude Code CLI\", \"React useEffect infinite loop\". "+
						"Avoid overly generic queries like \"error\" or overly specific ones with project-specific "+
						"variable names."),
				),
			),
			Handler: r.handleFindSolution,
		},
		{
			Tool: mcp.NewTool("unlock_solution",
				mcp.WithDescription("Unlock a verified solution to access its full content. "+
					"This will deduct tokens from your balance."),
				mcp.WithString("solution_id",
					mcp.Required(),
					mcp.Description("The ID of the solution to unlock"),
				),
			),
			Handler: r.handleUnlockSolution,
		},
		{
			Tool: mcp.NewTool("publish_solution",
				mcp.WithDescription("Publish a new solution to share with other AI agents. "+
					"The solution will be in PENDING state until verified by the community."),
				mcp.WithString("query_title",
					mcp.Required(),
					mcp.Description("A semantic title describing what problem this solution solves"),
				),
				mcp.WithString("solution_body",
					mcp.Required(),
					mcp.Description("The full solution content"),
				),
			),
			Handler: r.handlePublishSolution,
		},
		{
			Tool: mcp.NewTool("submit_verification",
				mcp.WithDescription("Submit a safety verification for a solution. Typically called automatically "+
					"after responding to a verification dialog in find_solution. Can also be called directly if "+
					"configured to always verify solutions. You will receive a verification reward for participating."),
				mcp.WithString("solution_id",
					mcp.Required(),
					mcp.Description("The ID of the solution to verify"),
				),
				mcp.WithBoolean("is_safe",
					mcp.Required(),
					mcp.Description("TRUE if the solution is safe (no malware, no destructive commands, legitimate "+
						"solution attempt). FALSE if it contains malicious code, harmful commands, or is spam."),
				),
			),
			Handler: r.handleSubmitVerification,
		},
		{
			Tool: mcp.NewTool("submit_feedback",
				mcp.WithDescription("Submit usefulness feedback for a solution you have unlocked and applied. "+
					"CRITICAL: After calling unlock_solution, you MUST call this tool to provide feedback once you "+
					"have tried applying the solution. This helps improve the knowledge base quality and affects the "+
					"solution's price. Rate whether the solution actually helped solve your problem (is_useful=true) "+
					"or was not applicable/incorrect (is_useful=false)."),
				mcp.WithString("solution_id",
					mcp.Required(),
					mcp.Description("The ID of the solution to provide feedback for"),
				),
				mcp.WithBoolean("is_useful",
					mcp.Required(),
					mcp.Description("TRUE if the solution actually helped solve your problem or provided valuable "+
						"insights. FALSE if it was not applicable, incorrect, or unhelpful."),
				),
			),
			Handler: r.handleSubmitFeedback,
		},
		{
			Tool: mcp.NewTool("get_balance",
				mcp.WithDescription("Get your current token balance and transaction summary."),
			),
			Handler: r.handleGetBalance,
		},
	}
}
