package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/engram-ai/engram/config"
	"github.com/engram-ai/engram/engine"
	"github.com/engram-ai/engram/memory"
	"github.com/engram-ai/engram/memory/embedder/cache"
	"github.com/engram-ai/engram/memory/embedder/mock"
	"github.com/engram-ai/engram/memory/embedder/ollama"
	"github.com/engram-ai/engram/memory/embedder/openai"
	"github.com/engram-ai/engram/memory/store/chromem"
	"github.com/engram-ai/engram/memory/store/sqlite"
)

var (
	configPath string
	namespace  string
)

var rootCmd = &cobra.Command{
	Use:   "engram",
	Short: "Dual-store memory engine for AI sessions",
	Long: "Engram persists memories and documents per namespace in a relational\n" +
		"record store and a semantic vector index, and retrieves them by meaning.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default: $ENGRAM_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&namespace, "ns", "n", "default", "Namespace (owning user) for all operations")
}

func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("ENGRAM_CONFIG")
	}
	return config.Load(path)
}

// openEngine assembles the engine from configuration. The returned
// cleanup closes both stores.
func openEngine() (*engine.Engine, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	records, err := sqlite.New(cfg.Store.SQLitePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open record store: %w", err)
	}

	var index memory.VectorIndex
	if cfg.Store.VectorPath != "" {
		index, err = chromem.NewPersistent(cfg.Store.VectorPath)
		if err != nil {
			records.Close()
			return nil, nil, fmt.Errorf("open vector index: %w", err)
		}
	} else {
		index = chromem.New()
	}

	embedder, err := buildEmbedder(cfg.Embedder)
	if err != nil {
		records.Close()
		index.Close()
		return nil, nil, err
	}

	eng := engine.New(records, index, embedder,
		engine.WithReconcilePacing(cfg.Reconcile.BatchSize, cfg.Reconcile.EmbedDelay(), cfg.Reconcile.BatchDelay()))
	cleanup := func() {
		index.Close()
		records.Close()
	}
	return eng, cleanup, nil
}

func buildEmbedder(cfg config.EmbedderConfig) (memory.Embedder, error) {
	var embedder memory.Embedder
	switch cfg.Provider {
	case "openai":
		embedder = openai.New(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Dimensions)
	case "ollama":
		model := cfg.Model
		if model == "" {
			model = "nomic-embed-text"
		}
		embedder = ollama.New(model)
	case "mock", "":
		embedder = mock.New()
	default:
		return nil, fmt.Errorf("unknown embedder provider %q", cfg.Provider)
	}

	if cfg.CacheSize > 0 {
		cached, err := cache.New(embedder, cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		embedder = cached
	}
	return embedder, nil
}
