// cacheoverflow is the cache.overflow MCP server: it lets AI coding
// assistants search, unlock, publish, verify, and rate crowd-sourced
// solutions. Run without arguments it serves MCP over stdio.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GetCacheOverflow/CacheOverflow/internal/config"
	"github.com/GetCacheOverflow/CacheOverflow/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Logger writes to the log file, never to stdout - stdout carries
	// the MCP protocol.
	logger  *zap.Logger
	logPath string
)

var rootCmd = &cobra.Command{
	Use:   "cacheoverflow",
	Short: "cache.overflow MCP server - crowd-sourced solutions for AI agents",
	Long: `cacheoverflow runs the cache.overflow MCP server over stdio.

It exposes tools for AI coding assistants to search the shared knowledge
base, unlock and rate solutions, publish new ones, and route unverified
content through a human safety check in the browser.

Configuration comes from ~/.cache-overflow/config.yaml and the
CACHE_OVERFLOW_URL / CACHE_OVERFLOW_TOKEN / CACHE_OVERFLOW_TIMEOUT
environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		logger, logPath, err = logging.Open(cfg.LogDir, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// loadConfig resolves the effective configuration for the current command.
func loadConfig() (config.Config, []string, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	return config.Load(path)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ~/.cache-overflow/config.yaml)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(mockServerCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
