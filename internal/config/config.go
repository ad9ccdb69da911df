// Package config handles hexarch's environment configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Loader names.
const (
	LoaderSource   = "source"
	LoaderPackages = "packages"
)

// Output formats.
const (
	OutputText = "text"
	OutputJSON = "json"
)

// Config holds settings read from HEXARCH_* variables. Command-line flags
// override individual fields after loading.
type Config struct {
	ConfigPath   string // architecture declaration (default "hexarch.yaml")
	LogLevel     string // debug, info, warn, error (default "info")
	Loader       string // "source" (default) or "packages"
	Workers      int    // parallel parsing and checking (default GOMAXPROCS)
	Output       string // "text" (default) or "json"
	HistoryDB    string // SQLite run history (default ".hexarch/history.sqlite")
	IndexDB      string // DuckDB graph index (default ".hexarch/graph.duckdb")
	IncludeTests bool   // include _test.go files in the graph

	// Warnings collects non-fatal problems found while loading. The caller
	// logs them once the logger exists.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate checks values that flags may have overridden.
func (c *Config) Validate() error {
	switch c.Loader {
	case LoaderSource, LoaderPackages:
	default:
		return fmt.Errorf("unknown loader %q (want %s or %s)", c.Loader, LoaderSource, LoaderPackages)
	}
	switch c.Output {
	case OutputText, OutputJSON:
	default:
		return fmt.Errorf("unknown output format %q (want %s or %s)", c.Output, OutputText, OutputJSON)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables. Malformed
// numeric or boolean values fall back to defaults with a warning.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		ConfigPath:   os.Getenv("HEXARCH_CONFIG"),
		LogLevel:     os.Getenv("HEXARCH_LOG_LEVEL"),
		Loader:       strings.ToLower(strings.TrimSpace(os.Getenv("HEXARCH_LOADER"))),
		Output:       strings.ToLower(strings.TrimSpace(os.Getenv("HEXARCH_OUTPUT"))),
		HistoryDB:    os.Getenv("HEXARCH_HISTORY_DB"),
		IndexDB:      os.Getenv("HEXARCH_INDEX_DB"),
		IncludeTests: parseBoolEnvDefault("HEXARCH_INCLUDE_TESTS", false),
	}

	if v := strings.TrimSpace(os.Getenv("HEXARCH_WORKERS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ignoring HEXARCH_WORKERS=%q: want a positive integer", v))
		} else {
			cfg.Workers = n
		}
	}

	// Defaults
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = "hexarch.yaml"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Loader == "" {
		cfg.Loader = LoaderSource
	}
	if cfg.Output == "" {
		cfg.Output = OutputText
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.HistoryDB == "" {
		cfg.HistoryDB = ".hexarch/history.sqlite"
	}
	if cfg.IndexDB == "" {
		cfg.IndexDB = ".hexarch/graph.duckdb"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return defaultVal
	}
	if v == "0" || v == "false" || v == "no" || v == "off" {
		return false
	}
	if v == "1" || v == "true" || v == "yes" || v == "on" {
		return true
	}
	return defaultVal
}

// LoadDotEnv reads a .env file and sets any variables not already in the
// environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	for key, value := range values {
		if os.Getenv(key) != "" {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("setenv %s: %w", key, err)
		}
	}
	return nil
}
