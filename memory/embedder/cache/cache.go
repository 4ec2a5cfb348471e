// Package cache wraps an embedder with a ristretto read-through cache.
// Reconciliation and document re-ingestion frequently re-embed
// identical text; serving those from memory keeps provider calls (and
// their rate limits) for text that actually changed.
package cache

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/dgraph-io/ristretto"

	"github.com/engram-ai/engram/memory"
)

// Embedder is a caching decorator around another memory.Embedder.
type Embedder struct {
	inner memory.Embedder
	cache *ristretto.Cache
}

// New wraps inner with a cache holding up to maxEntries vectors.
func New(inner memory.Embedder, maxEntries int64) (*Embedder, error) {
	if maxEntries <= 0 {
		maxEntries = 4096
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &Embedder{inner: inner, cache: cache}, nil
}

// Embed returns the cached vector for text, calling the inner embedder
// on a miss.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := hashKey(text)
	if v, ok := e.cache.Get(key); ok {
		if vec, ok := v.([]float32); ok {
			return vec, nil
		}
	}

	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Set(key, vec, 1)
	return vec, nil
}

// Dimensions returns the inner embedder's size.
func (e *Embedder) Dimensions() int { return e.inner.Dimensions() }

// Wait blocks until buffered cache writes are applied. Tests use it;
// normal callers never need to.
func (e *Embedder) Wait() { e.cache.Wait() }

func hashKey(text string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(text))
	return h.Sum64()
}
