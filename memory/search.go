package memory

import (
	"context"
	"fmt"
	"log"
	"sort"
)

// Search defaults. The threshold matches what small local embedding
// models comfortably clear for genuinely related text; API-grade models
// score well above it.
const (
	DefaultTopK      = 10
	DefaultThreshold = 0.5
)

// SearchOptions tune a single search call. The zero Threshold is
// meaningful (it admits every positive score), so callers wanting the
// defaults should pass nil or DefaultSearchOptions().
type SearchOptions struct {
	// TopK caps how many matches are requested from the index.
	TopK int

	// Threshold excludes matches with Score <= Threshold.
	Threshold float64

	// Filter restricts matches to entries whose metadata equals every
	// key exactly.
	Filter map[string]string
}

// DefaultSearchOptions returns the standard retrieval tuning.
func DefaultSearchOptions() *SearchOptions {
	return &SearchOptions{TopK: DefaultTopK, Threshold: DefaultThreshold}
}

// Result is one retrieval hit, highest score first.
type Result struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Searcher performs threshold-filtered semantic retrieval against the
// vector index. Selection can be similarity-driven (high threshold) or
// purely filter-driven (negative threshold, as document reconstruction
// uses).
type Searcher struct {
	index    VectorIndex
	embedder Embedder
}

// NewSearcher creates a searcher over the given index and embedder.
func NewSearcher(index VectorIndex, embedder Embedder) *Searcher {
	return &Searcher{index: index, embedder: embedder}
}

// Search embeds the query, queries the namespace with the optional
// metadata filter, drops matches at or below the threshold, and returns
// the rest ordered by descending score. No matches above threshold is
// an empty list, not an error. A match whose content cannot be resolved
// is returned with a placeholder rather than failing the whole search.
func (s *Searcher) Search(ctx context.Context, namespace, query string, opts *SearchOptions) ([]Result, error) {
	if opts == nil {
		opts = DefaultSearchOptions()
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &EmbeddingError{Err: fmt.Errorf("embed query: %w", err)}
	}

	matches, err := s.index.Query(ctx, namespace, vector, topK, opts.Filter)
	if err != nil {
		return nil, &VectorStoreError{Err: fmt.Errorf("query: %w", err)}
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		if m.Score <= opts.Threshold {
			continue
		}
		content := m.Content
		if content == "" {
			content = m.Metadata[MetaContent]
		}
		if content == "" {
			content = fmt.Sprintf("[content unavailable for memory %s]", m.ID)
		}
		results = append(results, Result{
			ID:       m.ID,
			Content:  content,
			Score:    m.Score,
			Metadata: m.Metadata,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	log.Printf("[SEARCH] %d/%d matches above threshold %.2f for query: %q",
		len(results), len(matches), opts.Threshold, truncateLog(query, 50))
	return results, nil
}

// truncateLog truncates text for logging.
func truncateLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
