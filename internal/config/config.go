// Package config loads process configuration for the cache.overflow MCP
// server. Values come from an optional YAML file in the user's config
// directory, overridden by CACHE_OVERFLOW_* environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultAPIURL is the production backend.
	DefaultAPIURL = "https://cache-overflow.onrender.com/api"

	// DefaultTimeoutMS is the per-request deadline in milliseconds.
	DefaultTimeoutMS = 30000

	// TokenPrefix is the expected prefix of cache.overflow API tokens.
	// A token without it is accepted with a warning.
	TokenPrefix = "co_"

	configDirName  = ".cache-overflow"
	configFileName = "config.yaml"
)

// Config holds everything the process needs to talk to the backend.
type Config struct {
	// APIURL is the backend base URL. Must parse as an absolute URL.
	APIURL string `yaml:"api_url,omitempty"`

	// Token is the bearer credential. Optional; unauthenticated calls
	// are allowed for read-only operations.
	Token string `yaml:"token,omitempty"`

	// TimeoutMS is the per-request deadline in milliseconds.
	TimeoutMS int `yaml:"timeout_ms,omitempty"`

	// LogDir overrides where the log file is written.
	LogDir string `yaml:"log_dir,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIURL:    DefaultAPIURL,
		TimeoutMS: DefaultTimeoutMS,
	}
}

// DefaultPath returns the config file location under the user's home
// directory, or "" when the home directory cannot be determined.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, configDirName, configFileName)
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (skipped when absent or path is empty), then environment overrides.
// It returns human-readable warnings for suspicious but non-fatal values.
func Load(path string) (Config, []string, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// No config file is the common case.
		default:
			return Config{}, nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	warnings, err := cfg.validate()
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

// Save writes the configuration as YAML, creating parent directories.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Timeout returns the per-request deadline as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CACHE_OVERFLOW_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("CACHE_OVERFLOW_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("CACHE_OVERFLOW_TIMEOUT"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.TimeoutMS = ms
		}
	}
	if v := os.Getenv("CACHE_OVERFLOW_LOG_DIR"); v != "" {
		cfg.LogDir = v
	}
}

// validate fails on configuration that cannot work (a malformed base URL)
// and warns on values that look wrong but might be intentional.
func (c *Config) validate() ([]string, error) {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api_url %q: %w", c.APIURL, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("invalid api_url %q: must be an absolute URL", c.APIURL)
	}

	var warnings []string
	if c.Token != "" && !strings.HasPrefix(c.Token, TokenPrefix) {
		warnings = append(warnings,
			fmt.Sprintf("token does not start with %q - double-check CACHE_OVERFLOW_TOKEN", TokenPrefix))
	}
	if c.TimeoutMS <= 0 {
		c.TimeoutMS = DefaultTimeoutMS
	}
	return warnings, nil
}
