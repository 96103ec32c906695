package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/GetCacheOverflow/CacheOverflow/internal/logging"
)

var (
	logsTail   int
	logsFollow bool
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Locate and print the MCP server log file",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range logging.CandidatePaths() {
			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Log file: %s\n\n", path)

			lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
			if logsTail > 0 && len(lines) > logsTail {
				lines = lines[len(lines)-logsTail:]
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(lines, "\n"))

			if logsFollow {
				return followLog(cmd, path, int64(len(data)))
			}
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), "No log file found. Checked locations:")
		for _, path := range logging.CandidatePaths() {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", path)
		}
		return nil
	},
}

// followLog polls the file and prints appended content until the command's
// context is cancelled. A truncation (rotation) resets the offset.
func followLog(cmd *cobra.Command, path string, offset int64) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case <-ticker.C:
		}

		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.Size() < offset {
			offset = 0
		}
		if info.Size() == offset {
			continue
		}

		f, err := os.Open(path)
		if err != nil {
			continue
		}
		if _, err := f.Seek(offset, io.SeekStart); err == nil {
			n, _ := io.Copy(cmd.OutOrStdout(), f)
			offset += n
		}
		f.Close()
	}
}

func init() {
	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "number of trailing log lines to print (0 for all)")
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "keep the file open and print new lines as they arrive")
}
