package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Storage.DataDir != "/var/lib/revtree" {
		t.Errorf("expected data dir '/var/lib/revtree', got %q", cfg.Storage.DataDir)
	}
	if cfg.Storage.CacheSize != 4096 {
		t.Errorf("expected cache size 4096, got %d", cfg.Storage.CacheSize)
	}
	if cfg.Storage.PrefetchWorkers != 8 {
		t.Errorf("expected 8 prefetch workers, got %d", cfg.Storage.PrefetchWorkers)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" || cfg.Logging.Output != "stderr" {
		t.Errorf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if errs := ValidateConfig(cfg); len(errs) != 0 {
		t.Errorf("defaults should be valid, got %v", errs)
	}
}

func TestParseConfig(t *testing.T) {
	data := []byte(`
# revtree configuration
storage:
  dataDir: "/srv/revtree"
  cacheSize: 128   # pages
  prefetchWorkers: 2

logging:
  level: debug
  format: json

trx:
  nodeNumber: 7
`)

	cfg, err := ParseConfig(data)
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}

	if cfg.Storage.DataDir != "/srv/revtree" {
		t.Errorf("expected data dir '/srv/revtree', got %q", cfg.Storage.DataDir)
	}
	if cfg.Storage.CacheSize != 128 {
		t.Errorf("expected cache size 128, got %d", cfg.Storage.CacheSize)
	}
	if cfg.Storage.PrefetchWorkers != 2 {
		t.Errorf("expected 2 prefetch workers, got %d", cfg.Storage.PrefetchWorkers)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Logging.Output != "stderr" {
		t.Errorf("missing key should keep default, got %q", cfg.Logging.Output)
	}
	if cfg.Trx.NodeNumber != 7 {
		t.Errorf("expected node number 7, got %d", cfg.Trx.NodeNumber)
	}
}

func TestParseConfigEmpty(t *testing.T) {
	cfg, err := ParseConfig(nil)
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("empty input should give defaults, got %+v", cfg)
	}
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"missing colon", "storage\n  dataDir /x\n", ErrInvalidYAML},
		{"bad number", "storage:\n  cacheSize: lots\n", ErrInvalidNumber},
		{"bad node number", "trx:\n  nodeNumber: 1.5\n", ErrInvalidNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseConfig([]byte(tt.data)); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestEnvSubstitution(t *testing.T) {
	t.Setenv("REVTREE_TEST_DIR", "/from/env")
	os.Unsetenv("REVTREE_TEST_UNSET")

	data := []byte(`
storage:
  dataDir: ${REVTREE_TEST_DIR}
logging:
  level: ${REVTREE_TEST_UNSET:-warn}
`)

	cfg, err := ParseConfig(data)
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}
	if cfg.Storage.DataDir != "/from/env" {
		t.Errorf("expected '/from/env', got %q", cfg.Storage.DataDir)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected default 'warn', got %q", cfg.Logging.Level)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "revtree.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  dataDir: /data\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Storage.DataDir != "/data" {
		t.Errorf("expected '/data', got %q", cfg.Storage.DataDir)
	}

	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound, got %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Config)
		field string
	}{
		{"empty data dir", func(c *Config) { c.Storage.DataDir = "" }, "storage.dataDir"},
		{"negative cache", func(c *Config) { c.Storage.CacheSize = -1 }, "storage.cacheSize"},
		{"negative workers", func(c *Config) { c.Storage.PrefetchWorkers = -2 }, "storage.prefetchWorkers"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"relative output", func(c *Config) { c.Logging.Output = "revtree.log" }, "logging.output"},
		{"missing output dir", func(c *Config) { c.Logging.Output = "/nonexistent/dir/revtree.log" }, "logging.output"},
		{"node number", func(c *Config) { c.Trx.NodeNumber = 1024 }, "trx.nodeNumber"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.edit(cfg)

			errs := ValidateConfig(cfg)
			if len(errs) != 1 {
				t.Fatalf("expected 1 error, got %v", errs)
			}
			var verr ValidationError
			if !errors.As(errs[0], &verr) || verr.Field != tt.field {
				t.Errorf("expected error on %s, got %v", tt.field, errs[0])
			}
		})
	}
}

func TestValidateLevelCaseInsensitive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "WARNING"
	cfg.Logging.Format = "JSON"

	if errs := ValidateConfig(cfg); len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
}
