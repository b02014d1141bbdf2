package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Listen != ":8080" {
		t.Errorf("listen = %q, want :8080", cfg.Listen)
	}
	if cfg.Mode != ModeLocal {
		t.Errorf("mode = %q, want local", cfg.Mode)
	}
	if cfg.Retry.MaxRetries != 3 || cfg.Retry.BaseDelay != Duration(time.Second) {
		t.Errorf("unexpected retry defaults: %+v", cfg.Retry)
	}
}

func TestLoad_FileMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
listen: ":9090"
mode: gateway
gateway:
  baseURL: "https://gw.example.com/v1/contract/kalp"
  contract: "abc123"
retry:
  maxRetries: 5
  baseDelay: 500ms
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Listen != ":9090" {
		t.Errorf("listen = %q, want :9090", cfg.Listen)
	}
	if cfg.Mode != ModeGateway {
		t.Errorf("mode = %q, want gateway", cfg.Mode)
	}
	if cfg.Gateway.Contract != "abc123" {
		t.Errorf("contract = %q", cfg.Gateway.Contract)
	}
	if cfg.Retry.MaxRetries != 5 || cfg.Retry.BaseDelay != Duration(500*time.Millisecond) {
		t.Errorf("unexpected retry config: %+v", cfg.Retry)
	}
	// Untouched fields keep their defaults.
	if cfg.DBPath != "./data/splitledger.db" {
		t.Errorf("dbPath = %q, want default", cfg.DBPath)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(`listen: ":9090"`), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("SPLITLEDGER_LISTEN", ":7070")
	t.Setenv("SPLITLEDGER_MAX_RETRIES", "4")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Listen != ":7070" {
		t.Errorf("listen = %q, env should win over file", cfg.Listen)
	}
	if cfg.Retry.MaxRetries != 4 {
		t.Errorf("maxRetries = %d, want 4", cfg.Retry.MaxRetries)
	}
}

func TestLoad_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(`mode: bogus`), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid mode")
	}

	if err := os.WriteFile(path, []byte(`mode: gateway`), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("gateway mode without baseURL should be rejected")
	}
}
