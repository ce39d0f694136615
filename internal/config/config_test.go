package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgallion1/docchunk/internal/chunker"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8090" {
		t.Errorf("expected port 8090, got %q", cfg.Port)
	}
	if cfg.TargetWords != 400 || cfg.OverlapWords != 50 {
		t.Errorf("expected 400/50, got %d/%d", cfg.TargetWords, cfg.OverlapWords)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected 1h TTL, got %v", cfg.JobTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Errorf("expected [*], got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docchunk.yaml")
	yml := `port: "9000"
target_words: 300
overlap_words: 30
job_ttl: 15m
cors_allowed_origins:
  - https://a.example
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("OVERLAP_WORDS", "20")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://b.example, https://c.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("expected port from file, got %q", cfg.Port)
	}
	if cfg.TargetWords != 300 {
		t.Errorf("expected 300 target words, got %d", cfg.TargetWords)
	}
	if cfg.OverlapWords != 20 {
		t.Errorf("expected env to override file overlap, got %d", cfg.OverlapWords)
	}
	if cfg.JobTTL != 15*time.Minute {
		t.Errorf("expected 15m TTL, got %v", cfg.JobTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://c.example" {
		t.Errorf("unexpected origins: %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoad_NonPositiveFallsBack(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("WORKER_COUNT", "0")
	t.Setenv("JOB_TTL", "-5m")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("expected worker count 4, got %d", cfg.WorkerCount)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected 1h TTL, got %v", cfg.JobTTL)
	}
}

func TestValidate(t *testing.T) {
	valid := Defaults()
	valid.DocchunkAPIKey = "k"

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid without sink", func(c *Config) {}, false},
		{"missing api key", func(c *Config) { c.DocchunkAPIKey = "" }, true},
		{"sink without key", func(c *Config) { c.PathstoreURL = "http://ps" }, true},
		{"sink with key", func(c *Config) { c.PathstoreURL = "http://ps"; c.PathstoreAPIKey = "p" }, false},
		{"overlap equals target", func(c *Config) { c.OverlapWords = c.TargetWords }, true},
		{"negative overlap", func(c *Config) { c.OverlapWords = -1 }, true},
	}
	for _, tt := range tests {
		cfg := valid
		tt.mutate(&cfg)
		err := cfg.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: expected error=%v, got %v", tt.name, tt.wantErr, err)
		}
	}
}

func TestValidate_WrapsInvalidChunkConfig(t *testing.T) {
	cfg := Defaults()
	cfg.DocchunkAPIKey = "k"
	cfg.OverlapWords = 500
	if err := cfg.Validate(); !errors.Is(err, chunker.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
