package agentfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const instructions = "Always call find_solution before writing code."

func TestInject_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CLAUDE.md")

	action, err := Inject(path, instructions)
	require.NoError(t, err)
	assert.Contains(t, action, "created")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "### cache.overflow\n```\n"+instructions+"\n```\n", string(content))
}

func TestInject_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs", "agents", "AGENTS.md")

	_, err := Inject(path, instructions)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestInject_AppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "AGENTS.md")
	require.NoError(t, os.WriteFile(path, []byte("# My project\n\nSome rules.\n"), 0o644))

	action, err := Inject(path, instructions)
	require.NoError(t, err)
	assert.Contains(t, action, "appended")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	got := string(content)
	assert.True(t, strings.HasPrefix(got, "# My project"), "existing content must be preserved")
	assert.Contains(t, got, "### cache.overflow")
	assert.Contains(t, got, instructions)
}

func TestInject_ReplacesExistingBlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CLAUDE.md")

	_, err := Inject(path, "old guidance")
	require.NoError(t, err)
	require.NoError(t, appendLine(path, "\n## Unrelated section\n"))

	action, err := Inject(path, "new guidance")
	require.NoError(t, err)
	assert.Contains(t, action, "replaced")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	got := string(content)
	assert.Contains(t, got, "new guidance")
	assert.NotContains(t, got, "old guidance")
	assert.Contains(t, got, "## Unrelated section", "content outside the block must survive")
	assert.Equal(t, 1, strings.Count(got, "### cache.overflow"))
}

func TestInject_ReplaceIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CLAUDE.md")

	_, err := Inject(path, instructions)
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = Inject(path, instructions)
	require.NoError(t, err)
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestInject_ReplaceKeepsDollarSigns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CLAUDE.md")

	_, err := Inject(path, "old guidance")
	require.NoError(t, err)

	// Dollar tokens must survive the in-place replace verbatim; they are
	// text, not replacement template references.
	text := "Set $CACHE_OVERFLOW_TOKEN and ${HOME}/.cache-overflow. Costs $1 per unlock."
	_, err = Inject(path, text)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), text)
}

func TestInject_RejectsEmptyInstructions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CLAUDE.md")

	_, err := Inject(path, "   \n\t")
	require.Error(t, err)
	assert.NoFileExists(t, path)
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line)
	return err
}
