// Package agentfile injects the cache.overflow usage instructions into a
// repository's agent instruction file (CLAUDE.md, AGENTS.md, or similar).
package agentfile

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const blockHeader = "### cache.overflow"

// blockRegex matches a previously injected instruction block so it can be
// replaced in-place on re-init.
var blockRegex = regexp.MustCompile("(?s)### cache\\.overflow\n```\n.*?\n```")

// wrap fences the instruction text in a recognizable block.
func wrap(instructions string) string {
	return blockHeader + "\n```\n" + instructions + "\n```"
}

// Inject writes the instruction block into the file at path: an existing
// block is replaced in-place, otherwise the block is appended (or the file
// is created). Returns a short description of what happened.
func Inject(path, instructions string) (string, error) {
	if strings.TrimSpace(instructions) == "" {
		return "", fmt.Errorf("instructions text is empty")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %q: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("failed to create parent directory: %w", err)
	}

	existing, err := os.ReadFile(abs)
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read %s: %w", abs, err)
	}

	block := wrap(instructions)
	var content, action string
	switch {
	// Literal replacement: instruction text may contain $-sequences that
	// must not be expanded as regexp template references.
	case blockRegex.Match(existing):
		content = blockRegex.ReplaceAllLiteralString(string(existing), block)
		action = "replaced existing cache.overflow block"
	case len(existing) > 0:
		content = strings.TrimRight(string(existing), "\n") + "\n\n" + block + "\n"
		action = "appended cache.overflow block to existing file"
	default:
		content = block + "\n"
		action = "created new file with cache.overflow block"
	}

	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", abs, err)
	}
	return action, nil
}
