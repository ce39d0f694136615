package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/docchunk/internal/chunker"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string `yaml:"port"`

	// Pathstore connection. An empty URL disables the chunk sink.
	PathstoreURL    string `yaml:"pathstore_url"`
	PathstoreAPIKey string `yaml:"pathstore_api_key"`

	// Auth
	DocchunkAPIKey string `yaml:"docchunk_api_key"`

	// Worker pool
	WorkerCount        int `yaml:"worker_count"`
	MaxQueueSize       int `yaml:"max_queue_size"`
	MaxConcurrentStore int `yaml:"max_concurrent_store"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Chunking defaults, in words.
	TargetWords  int `yaml:"target_words"`
	OverlapWords int `yaml:"overlap_words"`

	// Job state
	JobTTL time.Duration `yaml:"job_ttl"`

	// PDF
	PDFFallbackPdftotext bool `yaml:"pdf_fallback_pdftotext"`

	// CORS
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	chunking := chunker.DefaultConfig()
	return Config{
		Port:                 "8090",
		WorkerCount:          4,
		MaxQueueSize:         100,
		MaxConcurrentStore:   10,
		MaxUploadBytes:       52428800, // 50MB
		TargetWords:          chunking.TargetWords,
		OverlapWords:         chunking.OverlapWords,
		JobTTL:               1 * time.Hour,
		PDFFallbackPdftotext: true,
		CORSAllowedOrigins:   []string{"*"},
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by CONFIG_FILE, and environment variables, in increasing precedence.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)

	cfg.PathstoreURL = envOr("PATHSTORE_URL", cfg.PathstoreURL)
	cfg.PathstoreAPIKey = envOr("PATHSTORE_API_KEY", cfg.PathstoreAPIKey)

	cfg.DocchunkAPIKey = envOr("DOCCHUNK_API_KEY", cfg.DocchunkAPIKey)

	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxConcurrentStore = envInt("MAX_CONCURRENT_STORE", cfg.MaxConcurrentStore)

	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)

	cfg.TargetWords = envInt("TARGET_WORDS", cfg.TargetWords)
	cfg.OverlapWords = envInt("OVERLAP_WORDS", cfg.OverlapWords)

	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)

	cfg.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", cfg.PDFFallbackPdftotext)

	cfg.CORSAllowedOrigins = envList("CORS_ALLOWED_ORIGINS", cfg.CORSAllowedOrigins)

	defaults := Defaults()
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = defaults.WorkerCount
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = defaults.MaxQueueSize
	}
	if cfg.MaxConcurrentStore <= 0 {
		cfg.MaxConcurrentStore = defaults.MaxConcurrentStore
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaults.MaxUploadBytes
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = defaults.JobTTL
	}

	return cfg, nil
}

// Chunking returns the splitter settings.
func (c Config) Chunking() chunker.Config {
	return chunker.Config{TargetWords: c.TargetWords, OverlapWords: c.OverlapWords}
}

// SinkEnabled reports whether chunks are written to pathstore.
func (c Config) SinkEnabled() bool {
	return c.PathstoreURL != ""
}

func (c Config) Validate() error {
	if c.DocchunkAPIKey == "" {
		return fmt.Errorf("DOCCHUNK_API_KEY is required")
	}
	if c.SinkEnabled() && c.PathstoreAPIKey == "" {
		return fmt.Errorf("PATHSTORE_API_KEY is required when PATHSTORE_URL is set")
	}
	if err := c.Chunking().Validate(); err != nil {
		return fmt.Errorf("TARGET_WORDS/OVERLAP_WORDS: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList reads a comma-separated list.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
