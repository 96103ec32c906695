package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GetCacheOverflow/CacheOverflow/internal/remoteconfig"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the remote tool/prompt configuration",
}

var configRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Force-refetch the remote config bundle and print a summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}

		remote := remoteconfig.NewService(cfg.APIURL, logger)
		remote.InvalidateCache()
		bundle, err := remote.FetchConfig(cmd.Context())
		if err != nil {
			return fmt.Errorf("config fetch failed (builtin definitions would be used): %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Schema version: %s\n", bundle.SchemaVersion)
		fmt.Fprintf(out, "Tools (%d):\n", len(bundle.Tools))
		for _, t := range bundle.Tools {
			fmt.Fprintf(out, "  - %s\n", t.Name)
		}
		fmt.Fprintf(out, "Prompts (%d):\n", len(bundle.Prompts))
		for _, p := range bundle.Prompts {
			fmt.Fprintf(out, "  - %s\n", p.Name)
		}
		fmt.Fprintf(out, "Instructions: %d bytes\n", len(bundle.Instructions))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configRefreshCmd)
}
