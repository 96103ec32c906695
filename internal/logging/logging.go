// Package logging provides the file-backed zap logger for the MCP server.
//
// stdout and stderr are off limits for diagnostics: stdout carries the MCP
// stdio protocol and stderr is shown raw to the user by some MCP hosts. All
// logs therefore go to cache-overflow-mcp.log in the user's config
// directory, falling back to the OS temp directory when the home directory
// is not writable.
package logging

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logFileName = "cache-overflow-mcp.log"
	logDirName  = ".cache-overflow"

	// maxLogSizeBytes caps the log file; beyond it the file is truncated
	// to its most recent tail on next startup.
	maxLogSizeBytes = 5 * 1024 * 1024
	keptTailLines   = 1000
)

// Open builds a JSON file logger. dir overrides the log directory; empty
// means the default location. The returned path is where the log landed.
func Open(dir string, verbose bool) (*zap.Logger, string, error) {
	path := resolvePath(dir)

	rotateIfNeeded(path)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(f)),
		level,
	)
	return zap.New(core), path, nil
}

// resolvePath picks the log file location: explicit dir, then the user's
// config directory, then the temp dir as a last resort.
func resolvePath(dir string) string {
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, logDirName)
		}
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err == nil {
			return filepath.Join(dir, logFileName)
		}
	}
	tmp := filepath.Join(os.TempDir(), "cache-overflow")
	_ = os.MkdirAll(tmp, 0o755)
	return filepath.Join(tmp, logFileName)
}

// CandidatePaths lists every location a log file may live in, in lookup
// order. Used by the logs command.
func CandidatePaths() []string {
	var paths []string
	if dir := os.Getenv("CACHE_OVERFLOW_LOG_DIR"); dir != "" {
		paths = append(paths, filepath.Join(dir, logFileName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, logDirName, logFileName))
	}
	paths = append(paths, filepath.Join(os.TempDir(), "cache-overflow", logFileName))
	return paths
}

// rotateIfNeeded truncates an oversized log file to its last lines.
// Rotation failures are swallowed - logging must never break the server.
func rotateIfNeeded(path string) {
	info, err := os.Stat(path)
	if err != nil || info.Size() < maxLogSizeBytes {
		return
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return
	}
	lines := bytes.Split(content, []byte("\n"))
	if len(lines) > keptTailLines {
		lines = lines[len(lines)-keptTailLines:]
	}
	_ = os.WriteFile(path, append(bytes.Join(lines, []byte("\n")), '\n'), 0o644)
}

// sensitiveKeys marks context keys whose values must never reach the log.
var sensitiveKeys = []string{"token", "password", "secret", "auth"}

// Redact returns a copy of ctx with sensitive values replaced. Nested maps
// are redacted recursively.
func Redact(ctx map[string]any) map[string]any {
	if ctx == nil {
		return nil
	}
	out := make(map[string]any, len(ctx))
	for k, v := range ctx {
		if isSensitive(k) {
			out[k] = "[REDACTED]"
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			out[k] = Redact(nested)
			continue
		}
		out[k] = v
	}
	return out
}

func isSensitive(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// Context wraps a redacted context map as a zap field.
func Context(ctx map[string]any) zap.Field {
	return zap.Any("context", Redact(ctx))
}
