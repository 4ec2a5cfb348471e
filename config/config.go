// Package config loads engine configuration from a YAML file with
// environment overrides for credentials and provider selection.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full engine configuration.
type Config struct {
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Store     StoreConfig     `yaml:"store"`
	Search    SearchConfig    `yaml:"search"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
}

// EmbedderConfig selects and tunes the embedding provider.
type EmbedderConfig struct {
	// Provider is "openai", "ollama" or "mock".
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	Dimensions int    `yaml:"dimensions"`

	// CacheSize caps the embedding cache; 0 disables caching.
	CacheSize int64 `yaml:"cache_size"`
}

// StoreConfig locates the two stores.
type StoreConfig struct {
	// SQLitePath is the record store database file, ":memory:" for
	// ephemeral use.
	SQLitePath string `yaml:"sqlite_path"`

	// VectorPath is the chromem directory; empty keeps vectors in
	// memory only.
	VectorPath string `yaml:"vector_path"`
}

// SearchConfig tunes retrieval defaults.
type SearchConfig struct {
	TopK      int     `yaml:"top_k"`
	Threshold float64 `yaml:"threshold"`
}

// ReconcileConfig tunes repair pacing. Delays are in milliseconds.
type ReconcileConfig struct {
	BatchSize    int `yaml:"batch_size"`
	EmbedDelayMS int `yaml:"embed_delay_ms"`
	BatchDelayMS int `yaml:"batch_delay_ms"`
}

// EmbedDelay returns the inter-embedding delay as a duration.
func (c ReconcileConfig) EmbedDelay() time.Duration {
	return time.Duration(c.EmbedDelayMS) * time.Millisecond
}

// BatchDelay returns the inter-batch delay as a duration.
func (c ReconcileConfig) BatchDelay() time.Duration {
	return time.Duration(c.BatchDelayMS) * time.Millisecond
}

// Default returns the configuration used when no file exists.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Embedder: EmbedderConfig{
			Provider:  "mock",
			CacheSize: 4096,
		},
		Store: StoreConfig{
			SQLitePath: filepath.Join(home, ".engram", "records.db"),
			VectorPath: filepath.Join(home, ".engram", "vectors"),
		},
		Search: SearchConfig{
			TopK:      10,
			Threshold: 0.5,
		},
		Reconcile: ReconcileConfig{
			BatchSize:    10,
			EmbedDelayMS: 200,
			BatchDelayMS: 1000,
		},
	}
}

// Load reads the YAML file at path, applying defaults for missing
// values and environment overrides on top. An empty path loads
// defaults plus the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv layers environment variables over the file values.
// ENGRAM_EMBED_PROVIDER, ENGRAM_EMBED_MODEL, ENGRAM_EMBED_URL,
// OPENAI_API_KEY, ENGRAM_DB and ENGRAM_VECTORS are honored.
func applyEnv(cfg *Config) {
	if v := os.Getenv("ENGRAM_EMBED_PROVIDER"); v != "" {
		cfg.Embedder.Provider = v
	}
	if v := os.Getenv("ENGRAM_EMBED_MODEL"); v != "" {
		cfg.Embedder.Model = v
	}
	if v := os.Getenv("ENGRAM_EMBED_URL"); v != "" {
		cfg.Embedder.BaseURL = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.Embedder.APIKey == "" {
		cfg.Embedder.APIKey = v
	}
	if v := os.Getenv("ENGRAM_DB"); v != "" {
		cfg.Store.SQLitePath = v
	}
	if v := os.Getenv("ENGRAM_VECTORS"); v != "" {
		cfg.Store.VectorPath = v
	}
}
