// Package config provides configuration loading and structs for the lexicon server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Content ContentConfig `yaml:"content"`
	Ingest  IngestConfig  `yaml:"ingest"`
	Search  SearchConfig  `yaml:"search"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// APIToken, when set, is the bearer token of authorized requests.
	APIToken string `yaml:"api_token"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig holds paths for the database and the autocomplete index.
type StorageConfig struct {
	DatabasePath          string `yaml:"database_path"`
	AutocompleteIndexPath string `yaml:"autocomplete_index_path"`
}

// ContentConfig describes the directory of study documents.
type ContentConfig struct {
	Directory       string `yaml:"directory"`
	Watch           *bool  `yaml:"watch"`
	WatchDebounceMS int    `yaml:"watch_debounce_ms"`
}

// WatchOrDefault returns whether to watch the content directory; defaults to true when unset.
func (c *ContentConfig) WatchOrDefault() bool {
	if c.Watch != nil {
		return *c.Watch
	}
	return true
}

// WatchDebounce returns the watcher quiet period.
func (c *ContentConfig) WatchDebounce() time.Duration {
	return time.Duration(c.WatchDebounceMS) * time.Millisecond
}

// IngestConfig holds scheduler and rebuild settings.
type IngestConfig struct {
	Concurrency    int `yaml:"concurrency"`
	RebuildDelayMS int `yaml:"rebuild_delay_ms"`
}

// RebuildDelay returns the autocomplete rebuild debounce.
func (c *IngestConfig) RebuildDelay() time.Duration {
	return time.Duration(c.RebuildDelayMS) * time.Millisecond
}

// SearchConfig holds lookup limits.
type SearchConfig struct {
	LookupLimit    int `yaml:"lookup_limit"`
	MaxLookupLimit int `yaml:"max_lookup_limit"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.AutocompleteIndexPath = expandPath(cfg.Storage.AutocompleteIndexPath, configDir)
	cfg.Content.Directory = expandPath(cfg.Content.Directory, configDir)

	return &cfg, nil
}

// Validate rejects negative counts and limits. Zero means "use the default".
func (c *Config) Validate() error {
	var errs []error
	check := func(name string, v int) {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %d", name, v))
		}
	}
	check("server.port", c.Server.Port)
	check("content.watch_debounce_ms", c.Content.WatchDebounceMS)
	check("ingest.concurrency", c.Ingest.Concurrency)
	check("ingest.rebuild_delay_ms", c.Ingest.RebuildDelayMS)
	check("search.lookup_limit", c.Search.LookupLimit)
	check("search.max_lookup_limit", c.Search.MaxLookupLimit)
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
