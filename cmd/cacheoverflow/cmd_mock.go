package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/GetCacheOverflow/CacheOverflow/internal/mockapi"
)

var mockPort int

var mockServerCmd = &cobra.Command{
	Use:   "mock-server",
	Short: "Run an in-memory mock of the cache.overflow backend",
	Long: `Serves the backend API surface with canned data for local development.
Point the server at it with:

  CACHE_OVERFLOW_URL=http://localhost:4242 cacheoverflow`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := fmt.Sprintf("127.0.0.1:%d", mockPort)
		fmt.Fprintf(cmd.OutOrStdout(), "Mock cache.overflow backend listening on http://%s\n", addr)
		return http.ListenAndServe(addr, mockapi.New().Handler())
	},
}

func init() {
	mockServerCmd.Flags().IntVarP(&mockPort, "port", "p", 4242, "port to listen on")
}
