package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpen_WritesJSONLinesToFile(t *testing.T) {
	dir := t.TempDir()

	logger, path, err := Open(dir, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, logFileName), path)

	logger.Info("server starting", zap.String("transport", "stdio"))
	require.NoError(t, logger.Sync())

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(content), &entry))
	assert.Equal(t, "server starting", entry["msg"])
	assert.Equal(t, "stdio", entry["transport"])
	assert.NotEmpty(t, entry["timestamp"])
}

func TestOpen_DebugLevelGatedByVerbose(t *testing.T) {
	dir := t.TempDir()

	quiet, path, err := Open(dir, false)
	require.NoError(t, err)
	quiet.Debug("hidden")
	require.NoError(t, quiet.Sync())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, bytes.TrimSpace(content))

	verbose, _, err := Open(dir, true)
	require.NoError(t, err)
	verbose.Debug("visible")
	require.NoError(t, verbose.Sync())

	content, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "visible")
}

func TestRotateIfNeeded_KeepsTailOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), logFileName)

	// Build a file over the size cap with numbered lines so the kept tail
	// is identifiable.
	var buf bytes.Buffer
	line := strings.Repeat("x", 4096)
	for i := 0; buf.Len() < maxLogSizeBytes; i++ {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	buf.WriteString("last line\n")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	rotateIfNeeded(path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	count := 0
	var tail string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)
	for scanner.Scan() {
		count++
		if text := scanner.Text(); text != "" {
			tail = text
		}
	}
	require.NoError(t, scanner.Err())
	assert.LessOrEqual(t, count, keptTailLines)
	assert.Equal(t, "last line", tail, "rotation must keep the newest lines")
}

func TestRotateIfNeeded_SmallFileUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), logFileName)
	require.NoError(t, os.WriteFile(path, []byte("keep me\n"), 0o644))

	rotateIfNeeded(path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "keep me\n", string(content))
}

func TestRedact(t *testing.T) {
	in := map[string]any{
		"url":      "http://localhost:4242",
		"token":    "co_secret",
		"apiToken": "co_other",
		"PASSWORD": "hunter2",
		"attempt":  2,
		"harmless": "value",
		"nested":   map[string]any{"auth_header": "Bearer x", "query": "binary search"},
	}

	out := Redact(in)

	assert.Equal(t, "[REDACTED]", out["token"])
	assert.Equal(t, "[REDACTED]", out["apiToken"])
	assert.Equal(t, "[REDACTED]", out["PASSWORD"])
	assert.Equal(t, "http://localhost:4242", out["url"])
	assert.Equal(t, 2, out["attempt"])

	nested := out["nested"].(map[string]any)
	assert.Equal(t, "[REDACTED]", nested["auth_header"])
	assert.Equal(t, "binary search", nested["query"])

	// Input map must not be mutated.
	assert.Equal(t, "co_secret", in["token"])
}

func TestRedact_Nil(t *testing.T) {
	assert.Nil(t, Redact(nil))
}
