package memory

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// Repository owns the dual-store write path. Identity is generated
// before the first external call, the record row is written before the
// vector entry, and both stores share that identity. A vector failure
// therefore leaves the repairable record-only state, never the reverse.
type Repository struct {
	records  RecordStore
	index    VectorIndex
	embedder Embedder
	now      func() time.Time
}

// NewRepository creates a repository over the given stores and embedder.
func NewRepository(records RecordStore, index VectorIndex, embedder Embedder) *Repository {
	return &Repository{
		records:  records,
		index:    index,
		embedder: embedder,
		now:      time.Now,
	}
}

// SetClock overrides the timestamp source. Used by tests.
func (r *Repository) SetClock(now func() time.Time) {
	r.now = now
}

// Store generates an identity, embeds content, and writes the memory
// into both stores. An embedding failure writes nothing. A vector
// failure returns the generated id alongside the error: the record row
// is already durable and a later reconciliation pass can regenerate the
// vector under the same identity.
func (r *Repository) Store(ctx context.Context, namespace, content string, metadata map[string]string) (string, error) {
	id := uuid.NewString()

	vector, err := r.embedder.Embed(ctx, content)
	if err != nil {
		return "", &EmbeddingError{Err: err}
	}

	rec := &Record{
		ID:        id,
		Namespace: namespace,
		Content:   content,
		Metadata:  cloneMetadata(metadata),
		CreatedAt: r.now().UTC(),
	}
	if err := r.records.Insert(ctx, rec); err != nil {
		return "", &RecordStoreError{Err: fmt.Errorf("insert %s: %w", id, err)}
	}

	if err := r.upsertVector(ctx, namespace, id, content, metadata, vector); err != nil {
		log.Printf("[REPO] Vector write failed for %s (record is durable, reconcile will repair): %v", id, err)
		return id, &VectorStoreError{Err: err}
	}

	log.Printf("[REPO] Stored memory %s in namespace %s", id, namespace)
	return id, nil
}

// Update re-embeds new content and replaces both the vector entry and
// the record row for (namespace, id). Metadata replaces the stored
// metadata; pass nil to keep the existing metadata.
func (r *Repository) Update(ctx context.Context, namespace, id, content string, metadata map[string]string) error {
	existing, err := r.records.Get(ctx, namespace, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("update %s: %w", id, ErrNotFound)
		}
		return &RecordStoreError{Err: fmt.Errorf("get %s: %w", id, err)}
	}
	if metadata == nil {
		metadata = existing.Metadata
	}

	vector, err := r.embedder.Embed(ctx, content)
	if err != nil {
		return &EmbeddingError{Err: err}
	}

	if err := r.records.Update(ctx, namespace, id, content, cloneMetadata(metadata)); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("update %s: %w", id, ErrNotFound)
		}
		return &RecordStoreError{Err: fmt.Errorf("update %s: %w", id, err)}
	}

	if err := r.upsertVector(ctx, namespace, id, content, metadata, vector); err != nil {
		log.Printf("[REPO] Vector update failed for %s (record is durable, reconcile will repair): %v", id, err)
		return &VectorStoreError{Err: err}
	}

	log.Printf("[REPO] Updated memory %s in namespace %s", id, namespace)
	return nil
}

// Delete removes the memory from both stores. The vector delete is
// namespace-scoped through the VectorIndex contract, so it cannot
// remove a same-id entry owned by another namespace.
func (r *Repository) Delete(ctx context.Context, namespace, id string) error {
	if err := r.records.Delete(ctx, namespace, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("delete %s: %w", id, ErrNotFound)
		}
		return &RecordStoreError{Err: fmt.Errorf("delete %s: %w", id, err)}
	}
	if err := r.index.DeleteByID(ctx, namespace, id); err != nil {
		return &VectorStoreError{Err: fmt.Errorf("delete %s: %w", id, err)}
	}

	log.Printf("[REPO] Deleted memory %s from namespace %s", id, namespace)
	return nil
}

// Get returns the record row for (namespace, id).
func (r *Repository) Get(ctx context.Context, namespace, id string) (*Record, error) {
	rec, err := r.records.Get(ctx, namespace, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("get %s: %w", id, ErrNotFound)
		}
		return nil, &RecordStoreError{Err: fmt.Errorf("get %s: %w", id, err)}
	}
	return rec, nil
}

// ListByProject returns every record in the namespace whose "project"
// metadata equals project, oldest first.
func (r *Repository) ListByProject(ctx context.Context, namespace, project string) ([]*Record, error) {
	rows, err := r.records.ListByNamespace(ctx, namespace)
	if err != nil {
		return nil, &RecordStoreError{Err: fmt.Errorf("list namespace %s: %w", namespace, err)}
	}

	var matched []*Record
	for _, rec := range rows {
		if rec.Metadata[MetaProject] == project {
			matched = append(matched, rec)
		}
	}
	return matched, nil
}

func (r *Repository) upsertVector(ctx context.Context, namespace, id, content string, metadata map[string]string, vector []float32) error {
	meta := cloneMetadata(metadata)
	meta[MetaContent] = content
	return r.index.Upsert(ctx, namespace, []VectorEntry{{
		ID:       id,
		Vector:   vector,
		Metadata: meta,
	}})
}

// Well-known metadata keys shared by the repository, search filters and
// the document layer.
const (
	MetaContent      = "content"
	MetaProject      = "project"
	MetaDocumentType = "documentType"
	MetaSection      = "section"
	MetaSectionType  = "sectionType"
	MetaPriority     = "priority"
	MetaTags         = "tags"
	MetaTimestamp    = "timestamp"
)
