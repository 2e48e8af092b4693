package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  database_path: "./data/db/lexicon.db"
  autocomplete_index_path: "/abs/autocomplete"
content:
  directory: "./content"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "db", "lexicon.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	if cfg.Storage.AutocompleteIndexPath != "/abs/autocomplete" {
		t.Errorf("absolute path should be kept, got %s", cfg.Storage.AutocompleteIndexPath)
	}
	wantContent := filepath.Join(dir, "content")
	if cfg.Content.Directory != wantContent {
		t.Errorf("content directory = %s, want %s", cfg.Content.Directory, wantContent)
	}
}

func TestLoad_rejectsNegativeValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
ingest:
  concurrency: -1
search:
  max_lookup_limit: -5
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, field := range []string{"ingest.concurrency", "search.max_lookup_limit"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q should mention %s", err, field)
		}
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Server.Addr() != "localhost:8080" {
		t.Errorf("addr: got %s", cfg.Server.Addr())
	}
	if cfg.Ingest.Concurrency != 2 {
		t.Errorf("default concurrency: got %d", cfg.Ingest.Concurrency)
	}
	if cfg.Ingest.RebuildDelay() != 2*time.Second {
		t.Errorf("default rebuild delay: got %s", cfg.Ingest.RebuildDelay())
	}
	if cfg.Content.WatchDebounce() != 400*time.Millisecond {
		t.Errorf("default watch debounce: got %s", cfg.Content.WatchDebounce())
	}
	if cfg.Search.LookupLimit != 10 || cfg.Search.MaxLookupLimit != 100 {
		t.Errorf("lookup limits: got %d/%d", cfg.Search.LookupLimit, cfg.Search.MaxLookupLimit)
	}
	if cfg.Storage.DatabasePath != "/usr/local/var/lexicon/data/db/lexicon.db" {
		t.Errorf("default database path: got %s", cfg.Storage.DatabasePath)
	}
	if cfg.Content.Watch == nil || !*cfg.Content.Watch {
		t.Error("watch should default to true")
	}
}

func TestContentConfig_WatchOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		c := &ContentConfig{}
		if got := c.WatchOrDefault(); !got {
			t.Errorf("WatchOrDefault() = %v, want true", got)
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		c := &ContentConfig{Watch: &f}
		if got := c.WatchOrDefault(); got {
			t.Errorf("WatchOrDefault() = %v, want false", got)
		}
	})
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090, APIToken: "geheim"},
		Storage: StorageConfig{DatabasePath: "/tmp/db"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Server.APIToken != "geheim" {
		t.Errorf("loaded token: got %q", loaded.Server.APIToken)
	}
}
