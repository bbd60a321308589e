// Package config loads and validates application configuration from YAML
// files with environment-variable overrides. It provides typed structs for
// each subsystem (Index, Storage, Logging, Metrics).
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Index   IndexConfig   `yaml:"index"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// IndexConfig controls query limits, snippet generation, and the query cache.
type IndexConfig struct {
	DefaultLimit  int `yaml:"defaultLimit"`
	MaxResults    int `yaml:"maxResults"`
	SnippetLength int `yaml:"snippetLength"`
	CacheSize     int `yaml:"cacheSize"`
}

// StorageConfig controls the snapshot directory and backup rotation.
type StorageConfig struct {
	DataDir         string `yaml:"dataDir"`
	BackupRetention int    `yaml:"backupRetention"`
	Compression     bool   `yaml:"compression"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig toggles Prometheus collector registration.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads a YAML config file (if provided) and applies environment
// variable overrides. Missing values fall back to defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			DefaultLimit:  10,
			MaxResults:    100,
			SnippetLength: 200,
			CacheSize:     256,
		},
		Storage: StorageConfig{
			DataDir:         "data",
			BackupRetention: 5,
			Compression:     true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func (c *Config) validate() error {
	if c.Index.DefaultLimit <= 0 {
		return fmt.Errorf("index.defaultLimit must be positive, got %d", c.Index.DefaultLimit)
	}
	if c.Index.MaxResults < c.Index.DefaultLimit {
		return fmt.Errorf("index.maxResults (%d) must be >= index.defaultLimit (%d)",
			c.Index.MaxResults, c.Index.DefaultLimit)
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.dataDir must not be empty")
	}
	if c.Storage.BackupRetention < 0 {
		return fmt.Errorf("storage.backupRetention must not be negative, got %d", c.Storage.BackupRetention)
	}
	return nil
}

// applyEnvOverrides reads DS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DS_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("DS_BACKUP_RETENTION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Storage.BackupRetention = n
		}
	}
	if v := os.Getenv("DS_COMPRESSION"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Storage.Compression = b
		}
	}
	if v := os.Getenv("DS_DEFAULT_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Index.DefaultLimit = n
		}
	}
	if v := os.Getenv("DS_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Index.MaxResults = n
		}
	}
	if v := os.Getenv("DS_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Index.CacheSize = n
		}
	}
	if v := os.Getenv("DS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("DS_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
}
