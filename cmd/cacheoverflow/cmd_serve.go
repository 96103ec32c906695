package main

import (
	"context"
	"runtime"

	"go.uber.org/zap"

	"github.com/GetCacheOverflow/CacheOverflow/internal/api"
	"github.com/GetCacheOverflow/CacheOverflow/internal/dialog"
	"github.com/GetCacheOverflow/CacheOverflow/internal/logging"
	"github.com/GetCacheOverflow/CacheOverflow/internal/mcpserver"
	"github.com/GetCacheOverflow/CacheOverflow/internal/prompts"
	"github.com/GetCacheOverflow/CacheOverflow/internal/remoteconfig"
	"github.com/GetCacheOverflow/CacheOverflow/internal/tools"
)

// runServe is the composition root: it builds the client, the config cache
// service, the registries, and serves MCP over stdio until the host hangs
// up.
func runServe(ctx context.Context) error {
	cfg, warnings, err := loadConfig()
	if err != nil {
		return err
	}
	for _, w := range warnings {
		logger.Warn(w)
	}

	logger.Info("MCP server starting",
		zap.String("version", mcpserver.Version),
		zap.String("go_version", runtime.Version()),
		zap.String("platform", runtime.GOOS),
		zap.String("arch", runtime.GOARCH),
		logging.Context(map[string]any{
			"api_url":        cfg.APIURL,
			"has_auth_token": cfg.Token != "",
			"timeout_ms":     cfg.TimeoutMS,
			"log_path":       logPath,
		}))

	client, err := api.NewClient(api.ClientConfig{
		BaseURL: cfg.APIURL,
		Token:   cfg.Token,
		Timeout: cfg.Timeout(),
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	remote := remoteconfig.NewService(cfg.APIURL, logger)
	verify := dialog.New(logger)

	toolReg := tools.NewRegistry(client, remote, verify.Show, logger)
	promptReg := prompts.NewRegistry(remote, logger)

	s := mcpserver.New(ctx, toolReg, promptReg, remote, logger)
	return mcpserver.ServeStdio(s)
}
