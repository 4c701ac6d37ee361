package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Search.MaxResults != 5 {
		t.Errorf("Search.MaxResults = %d, want 5", cfg.Search.MaxResults)
	}
	if cfg.Requests.WindowSize != 1440 {
		t.Errorf("Requests.WindowSize = %d, want 1440", cfg.Requests.WindowSize)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  port: 9999
search:
  stopWords: ["и", "в", "на"]
  maxResults: 3
redis:
  enabled: true
  cacheTTL: 30s
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if len(cfg.Search.StopWords) != 3 {
		t.Errorf("StopWords = %v, want 3 words", cfg.Search.StopWords)
	}
	if cfg.Search.MaxResults != 3 {
		t.Errorf("MaxResults = %d, want 3", cfg.Search.MaxResults)
	}
	if !cfg.Redis.Enabled || cfg.Redis.CacheTTL != 30*time.Second {
		t.Errorf("Redis = %+v, want enabled with 30s TTL", cfg.Redis)
	}
	// Unset fields keep their defaults.
	if cfg.Metrics.Port != 9090 {
		t.Errorf("Metrics.Port = %d, want default 9090", cfg.Metrics.Port)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RS_SERVER_PORT", "7777")
	t.Setenv("RS_SEARCH_STOP_WORDS", "и в на")
	t.Setenv("RS_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("Server.Port = %d, want 7777", cfg.Server.Port)
	}
	if len(cfg.Search.StopWords) != 3 {
		t.Errorf("StopWords = %v, want 3 words", cfg.Search.StopWords)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestValidation(t *testing.T) {
	t.Setenv("RS_SEARCH_MAX_RESULTS", "0")
	if _, err := Load(""); err == nil {
		t.Error("Load accepted maxResults 0")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load accepted a missing file")
	}
}
