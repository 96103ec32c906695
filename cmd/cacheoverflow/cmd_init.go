package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GetCacheOverflow/CacheOverflow/internal/agentfile"
	"github.com/GetCacheOverflow/CacheOverflow/internal/remoteconfig"
)

var initCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Inject cache.overflow instructions into an agent file",
	Long: `Fetches the latest usage instructions from the cache.overflow API and
injects them into the given file (e.g. CLAUDE.md or AGENTS.md), wrapped in
a recognizable block. An existing block is replaced in-place; otherwise
the block is appended.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, warnings, err := loadConfig()
		if err != nil {
			return err
		}
		for _, w := range warnings {
			fmt.Fprintln(cmd.ErrOrStderr(), "Warning:", w)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Fetching cache.overflow instructions...")

		remote := remoteconfig.NewService(cfg.APIURL, logger)
		bundle, err := remote.FetchConfig(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to fetch instructions: %w", err)
		}
		if bundle.Instructions == "" {
			return fmt.Errorf("remote config missing instructions field")
		}

		action, err := agentfile.Inject(args[0], bundle.Instructions)
		if err != nil {
			return err
		}

		logger.Info("injected cache.overflow instructions",
			zap.String("file", args[0]), zap.String("action", action))
		fmt.Fprintf(cmd.OutOrStdout(), "%s\ncache.overflow instructions injected into %s\n", action, args[0])
		return nil
	},
}
