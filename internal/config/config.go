// Package config loads server configuration.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml), with ${VAR} expansion
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	opts, err := cfg.Reconciliation.Options()
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/billrecon/reconciler/internal/reconciliation"
)

// Config represents the entire application configuration
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Storage        StorageConfig        `yaml:"storage"`
	Reconciliation ReconciliationConfig `yaml:"reconciliation"`
	Observability  ObservabilityConfig  `yaml:"observability"`
}

// ServerConfig holds HTTP settings
type ServerConfig struct {
	Port              string `yaml:"port"`
	MaxRangeDays      int    `yaml:"max_range_days"`
	SyntheticFallback bool   `yaml:"synthetic_fallback"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ReconciliationConfig holds the default engine tunables. Requests may
// override the tolerances.
type ReconciliationConfig struct {
	AmountTolerance       string `yaml:"amount_tolerance"`
	DaysTolerance         int    `yaml:"days_tolerance"`
	IncludePartialMatches bool   `yaml:"include_partial_matches"`
	ExactWorkers          int    `yaml:"exact_workers"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              "8080",
			MaxRangeDays:      90,
			SyntheticFallback: true,
		},
		Storage: StorageConfig{DatabasePath: "reconciler.db"},
		Reconciliation: ReconciliationConfig{
			AmountTolerance:       "0.01",
			DaysTolerance:         2,
			IncludePartialMatches: true,
			ExactWorkers:          4,
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{Level: "info", Format: "text"},
		},
	}
}

// Load reads and parses the config file. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${DB_PATH})
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	def := Default()
	return &Config{
		Server: ServerConfig{
			Port:              getEnv("PORT", def.Server.Port),
			MaxRangeDays:      getEnvInt("MAX_RANGE_DAYS", def.Server.MaxRangeDays),
			SyntheticFallback: getEnvBool("SYNTHETIC_FALLBACK", def.Server.SyntheticFallback),
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("DB_PATH", def.Storage.DatabasePath),
		},
		Reconciliation: ReconciliationConfig{
			AmountTolerance:       getEnv("AMOUNT_TOLERANCE", def.Reconciliation.AmountTolerance),
			DaysTolerance:         getEnvInt("DAYS_TOLERANCE", def.Reconciliation.DaysTolerance),
			IncludePartialMatches: getEnvBool("INCLUDE_PARTIAL_MATCHES", def.Reconciliation.IncludePartialMatches),
			ExactWorkers:          getEnvInt("EXACT_WORKERS", def.Reconciliation.ExactWorkers),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", def.Observability.Logging.Level),
				Format: getEnv("LOG_FORMAT", def.Observability.Logging.Format),
			},
		},
	}
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from the specified path, falls back to
// environment variables
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// Options converts the configured defaults into engine options.
func (c ReconciliationConfig) Options() (reconciliation.Options, error) {
	opts := reconciliation.DefaultOptions()
	if c.AmountTolerance != "" {
		tol, err := decimal.NewFromString(strings.TrimSpace(c.AmountTolerance))
		if err != nil {
			return opts, fmt.Errorf("amount_tolerance %q: %w", c.AmountTolerance, err)
		}
		opts.AmountTolerance = tol
	}
	opts.DaysTolerance = c.DaysTolerance
	opts.IncludePartialMatches = c.IncludePartialMatches
	if c.ExactWorkers > 0 {
		opts.ExactWorkers = c.ExactWorkers
	}
	return opts, opts.Validate()
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}
