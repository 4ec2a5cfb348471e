package memory

import (
	"errors"
	"fmt"
)

// ErrNotFound reports an update, delete or lookup against an identity
// that has no row in the record store for the given namespace.
var ErrNotFound = errors.New("memory not found")

// EmbeddingError wraps a failure of the embedding provider, including
// an empty result. Surfaced to the caller; the core never retries it
// except for reconciliation's per-item skip.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string { return fmt.Sprintf("embedding provider: %v", e.Err) }
func (e *EmbeddingError) Unwrap() error { return e.Err }

// VectorStoreError wraps a vector index failure. Partial writes are not
// rolled back; a record-only state left behind is repaired by the
// Reconciler.
type VectorStoreError struct {
	Err error
}

func (e *VectorStoreError) Error() string { return fmt.Sprintf("vector index: %v", e.Err) }
func (e *VectorStoreError) Unwrap() error { return e.Err }

// RecordStoreError wraps a relational store failure.
type RecordStoreError struct {
	Err error
}

func (e *RecordStoreError) Error() string { return fmt.Sprintf("record store: %v", e.Err) }
func (e *RecordStoreError) Unwrap() error { return e.Err }
