// Package mock provides a deterministic embedder for tests. No model,
// no network: each word hashes into a fixed bucket, so identical text
// embeds to the identical vector (cosine 1.0) and texts sharing words
// score proportionally to their overlap. Good enough to exercise
// threshold filtering and store-then-search round-trips.
package mock

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// Embedder is a deterministic bag-of-words embedder.
type Embedder struct {
	dimensions int
}

// New creates a mock embedder with 256 dimensions.
func New() *Embedder {
	return &Embedder{dimensions: 256}
}

// Embed hashes each lowercased word into a bucket and normalizes the
// resulting vector to unit length.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dimensions)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:!?\"'()[]")
		if word == "" {
			continue
		}
		h := fnv.New64a()
		h.Write([]byte(word))
		vec[h.Sum64()%uint64(e.dimensions)] += 1
	}
	return normalize(vec), nil
}

// Dimensions returns the embedding size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// normalize converts the vector to unit length.
func normalize(vec []float32) []float32 {
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = float32(math.Sqrt(float64(norm)))
	for i, v := range vec {
		vec[i] = v / norm
	}
	return vec
}
