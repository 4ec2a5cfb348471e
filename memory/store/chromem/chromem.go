// Package chromem adapts chromem-go, a pure Go embedded vector
// database, to the memory.VectorIndex capability. Each namespace maps
// to its own chromem collection, so ids are partitioned per namespace
// and id-based deletion cannot cross namespace boundaries.
package chromem

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/engram-ai/engram/memory"
)

// Index implements memory.VectorIndex on chromem-go.
type Index struct {
	db          *chromem.DB
	collections map[string]*chromem.Collection
	mu          sync.RWMutex
}

// New creates an in-memory index.
func New() *Index {
	return &Index{
		db:          chromem.NewDB(),
		collections: make(map[string]*chromem.Collection),
	}
}

// NewPersistent creates an index backed by an on-disk chromem database.
func NewPersistent(path string) (*Index, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("open persistent db: %w", err)
	}
	return &Index{
		db:          db,
		collections: make(map[string]*chromem.Collection),
	}, nil
}

// collection returns the namespace's collection, creating it on first
// use. Embedding and distance funcs stay nil: callers always provide
// vectors, and the default cosine similarity is what search expects.
func (x *Index) collection(namespace string) (*chromem.Collection, error) {
	x.mu.RLock()
	col, ok := x.collections[namespace]
	x.mu.RUnlock()
	if ok {
		return col, nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	// Double-check after acquiring write lock
	if col, ok := x.collections[namespace]; ok {
		return col, nil
	}

	name := "ns_" + namespace
	if namespace == "" {
		name = "default"
	}
	col, err := x.db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}
	x.collections[namespace] = col
	return col, nil
}

// Upsert writes entries into the namespace's collection. chromem keys
// documents by id, so re-adding an id replaces the previous entry.
func (x *Index) Upsert(ctx context.Context, namespace string, entries []memory.VectorEntry) error {
	col, err := x.collection(namespace)
	if err != nil {
		return err
	}

	docs := make([]chromem.Document, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, chromem.Document{
			ID:        e.ID,
			Content:   e.Metadata[memory.MetaContent],
			Embedding: e.Vector,
			Metadata:  e.Metadata,
		})
	}
	if err := col.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}

	log.Printf("[CHROMEM] Upserted %d entries into namespace %s", len(entries), namespace)
	return nil
}

// Query runs a similarity query restricted by the metadata filter.
// chromem rejects nResults larger than the collection, and a filter can
// shrink the candidate set below any precomputed count, so the request
// is retried with smaller limits until it fits.
func (x *Index) Query(ctx context.Context, namespace string, vector []float32, topK int, filter map[string]string) ([]memory.VectorMatch, error) {
	col, err := x.collection(namespace)
	if err != nil {
		return nil, err
	}

	if n := col.Count(); topK > n {
		topK = n
	}
	if topK <= 0 {
		return nil, nil
	}

	var results []chromem.Result
	for limit := topK; limit >= 1; limit-- {
		results, err = col.QueryEmbedding(ctx, vector, limit, filter, nil)
		if err == nil {
			break
		}
		if isInsufficientDocsError(err) {
			if limit == 1 {
				return nil, nil
			}
			continue
		}
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	matches := make([]memory.VectorMatch, 0, len(results))
	for _, res := range results {
		matches = append(matches, memory.VectorMatch{
			ID:       res.ID,
			Score:    float64(res.Similarity),
			Content:  res.Content,
			Metadata: res.Metadata,
		})
	}
	return matches, nil
}

// ExistingIDs reports which of the ids have a document in the
// namespace's collection.
func (x *Index) ExistingIDs(ctx context.Context, namespace string, ids []string) ([]string, error) {
	col, err := x.collection(namespace)
	if err != nil {
		return nil, err
	}

	var existing []string
	for _, id := range ids {
		if _, err := col.GetByID(ctx, id); err == nil {
			existing = append(existing, id)
		}
	}
	return existing, nil
}

// DeleteByID removes the document from the namespace's collection only:
// the same id in another namespace lives in a different collection and
// is untouched.
func (x *Index) DeleteByID(ctx context.Context, namespace string, id string) error {
	col, err := x.collection(namespace)
	if err != nil {
		return err
	}
	if err := col.Delete(ctx, nil, nil, id); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

// Close releases resources. Persistent chromem flushes on every write,
// so there is nothing to sync here.
func (x *Index) Close() error {
	return nil
}

// isInsufficientDocsError checks if the error is chromem complaining
// that nResults exceeds the available documents.
func isInsufficientDocsError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "nResults must be") || strings.Contains(msg, "number of documents")
}
