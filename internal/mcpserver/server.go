// Package mcpserver assembles the MCP stdio server from the tool and
// prompt registries.
package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/GetCacheOverflow/CacheOverflow/internal/prompts"
	"github.com/GetCacheOverflow/CacheOverflow/internal/remoteconfig"
	"github.com/GetCacheOverflow/CacheOverflow/internal/tools"
)

const (
	// Name identifies this server to MCP hosts.
	Name = "cache-overflow"
	// Version is the server version reported during initialization.
	Version = "0.3.4"
)

// New builds the MCP server and registers every resolved tool and prompt.
// The remote config service is consulted once here; registries handle
// their own fallback when it fails.
func New(ctx context.Context, toolReg *tools.Registry, promptReg *prompts.Registry, remote *remoteconfig.Service, logger *zap.Logger) *server.MCPServer {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithPromptCapabilities(false),
	}

	if remote != nil {
		if bundle, err := remote.FetchConfig(ctx); err == nil && bundle.Instructions != "" {
			opts = append(opts, server.WithInstructions(bundle.Instructions))
		}
	}

	s := server.NewMCPServer(Name, Version, opts...)

	toolDefs := toolReg.Definitions(ctx)
	for _, def := range toolDefs {
		s.AddTool(def.Tool, def.Handler)
	}

	promptDefs := promptReg.Definitions(ctx)
	for _, def := range promptDefs {
		s.AddPrompt(def.Prompt, def.Handler)
	}

	logger.Info("MCP server assembled",
		zap.Int("tools", len(toolDefs)),
		zap.Int("prompts", len(promptDefs)))
	return s
}

// ServeStdio runs the server over stdin/stdout until the host disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
