package memory

import (
	"context"
	"time"
)

// Record is the atomic retrievable unit: raw text plus open metadata,
// owned by a single namespace. The embedding derived from Content lives
// only in the vector index, never on the record itself.
type Record struct {
	ID        string            `json:"id"`
	Namespace string            `json:"namespace"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// VectorEntry is one upsert into the vector index. Metadata carries the
// record content under the "content" key so query results can resolve
// text without a second store round-trip.
type VectorEntry struct {
	ID       string
	Vector   []float32
	Metadata map[string]string
}

// VectorMatch is one nearest-neighbor result.
type VectorMatch struct {
	ID       string
	Score    float64
	Content  string
	Metadata map[string]string
}

// Embedder converts text to fixed-dimension vectors.
// Implementations: mock (testing), openai, ollama, cache (read-through).
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}

// VectorIndex is the nearest-neighbor storage capability. Every call is
// namespace-scoped, including deletion: backends whose engine does not
// partition ids per namespace must still restrict the delete to the
// given namespace rather than deleting by bare id.
type VectorIndex interface {
	// Upsert writes entries under the namespace, replacing any existing
	// entry with the same id.
	Upsert(ctx context.Context, namespace string, entries []VectorEntry) error

	// Query returns up to topK matches by similarity, restricted to
	// entries whose metadata equals every key in filter.
	Query(ctx context.Context, namespace string, vector []float32, topK int, filter map[string]string) ([]VectorMatch, error)

	// ExistingIDs returns the subset of ids that have a vector entry.
	ExistingIDs(ctx context.Context, namespace string, ids []string) ([]string, error)

	// DeleteByID removes one entry from the namespace.
	DeleteByID(ctx context.Context, namespace string, id string) error

	// Close releases resources.
	Close() error
}

// RecordStore is the durable system-of-record capability.
type RecordStore interface {
	Insert(ctx context.Context, rec *Record) error

	// Update replaces content and metadata of the row matching
	// (namespace, id). Returns ErrNotFound when no row matches.
	Update(ctx context.Context, namespace, id, content string, metadata map[string]string) error

	// Delete removes the row matching (namespace, id).
	// Returns ErrNotFound when no row matches.
	Delete(ctx context.Context, namespace, id string) error

	Get(ctx context.Context, namespace, id string) (*Record, error)

	// ListByNamespace returns every row owned by the namespace,
	// oldest first.
	ListByNamespace(ctx context.Context, namespace string) ([]*Record, error)

	Close() error
}

// cloneMetadata copies a metadata map so stores and index entries never
// share a mutable map with the caller.
func cloneMetadata(metadata map[string]string) map[string]string {
	cloned := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		cloned[k] = v
	}
	return cloned
}
