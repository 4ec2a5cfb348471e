package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engram.yaml")
	data := `
embedder:
  provider: ollama
  model: all-minilm
store:
  sqlite_path: /tmp/engram-test/records.db
search:
  threshold: 0.35
reconcile:
  batch_size: 5
  embed_delay_ms: 50
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Embedder.Provider != "ollama" || cfg.Embedder.Model != "all-minilm" {
		t.Errorf("Embedder config not applied: %+v", cfg.Embedder)
	}
	if cfg.Search.Threshold != 0.35 {
		t.Errorf("Threshold = %v, want 0.35", cfg.Search.Threshold)
	}
	if cfg.Reconcile.BatchSize != 5 || cfg.Reconcile.EmbedDelay() != 50*time.Millisecond {
		t.Errorf("Reconcile config not applied: %+v", cfg.Reconcile)
	}
	// Untouched keys keep their defaults.
	if cfg.Search.TopK != 10 {
		t.Errorf("TopK default lost: %d", cfg.Search.TopK)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("ENGRAM_EMBED_PROVIDER", "openai")
	t.Setenv("ENGRAM_DB", "/tmp/elsewhere.db")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Embedder.Provider != "openai" {
		t.Errorf("Provider = %q, want openai", cfg.Embedder.Provider)
	}
	if cfg.Store.SQLitePath != "/tmp/elsewhere.db" {
		t.Errorf("SQLitePath = %q", cfg.Store.SQLitePath)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/no/such/file.yaml"); err == nil {
		t.Fatal("Expected an error for a missing config file")
	}
}
