package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %v, want 8080", cfg.Server.Port)
	}
	if cfg.Server.Timeout != "30s" {
		t.Errorf("timeout = %v, want 30s", cfg.Server.Timeout)
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("storage type = %v, want memory", cfg.Storage.Type)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := `
server:
  port: 9090
storage:
  type: sqlite
  sqlite:
    path: ./data/prism.db
pipeline:
  use_cache: true
  max_depth: 10
  reject:
    - "^hook\\."
  webhooks:
    - name: audit
      url: http://localhost:9999/audit
      position: after
      target: document.Validate
      on_error: continue
auth:
  api_keys:
    - key_hash: abc123
      description: ci
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %v, want 9090", cfg.Server.Port)
	}
	if cfg.Storage.SQLite.Path != "./data/prism.db" {
		t.Errorf("sqlite path = %v", cfg.Storage.SQLite.Path)
	}
	if !cfg.Pipeline.UseCache || cfg.Pipeline.MaxDepth != 10 {
		t.Errorf("pipeline config = %+v", cfg.Pipeline)
	}
	if len(cfg.Pipeline.Webhooks) != 1 || cfg.Pipeline.Webhooks[0].Target != "document.Validate" {
		t.Errorf("webhooks = %+v", cfg.Pipeline.Webhooks)
	}
	if len(cfg.Auth.APIKeys) != 1 || cfg.Auth.APIKeys[0].KeyHash != "abc123" {
		t.Errorf("api keys = %+v", cfg.Auth.APIKeys)
	}
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("PRISM_SERVER__PORT", "9000")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %v, want 9000", cfg.Server.Port)
	}
}
