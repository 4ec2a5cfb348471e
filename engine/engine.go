// Package engine wires the memory and document components into the
// single surface an outer transport layer calls. Every operation takes
// an already-authenticated namespace; the engine performs no
// authentication and never crosses namespaces.
package engine

import (
	"context"
	"time"

	"github.com/engram-ai/engram/document"
	"github.com/engram-ai/engram/memory"
)

// Engine exposes the eight core operations: Store, Update, Delete,
// Search, Decompose, Reconstruct, ListByProject, Reconcile.
type Engine struct {
	repo          *memory.Repository
	searcher      *memory.Searcher
	reconciler    *memory.Reconciler
	decomposer    *document.Decomposer
	reconstructor *document.Reconstructor
}

// Option configures the engine.
type Option func(*Engine)

// WithReconcilePacing overrides the reconciler's batch size and delays.
func WithReconcilePacing(batchSize int, embedDelay, batchDelay time.Duration) Option {
	return func(e *Engine) {
		e.reconciler.SetPacing(batchSize, embedDelay, batchDelay)
	}
}

// WithClock overrides the timestamp source for stored records and
// decomposed sections. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.repo.SetClock(now)
		e.decomposer.SetClock(now)
	}
}

// New creates an engine over the given stores and embedder.
func New(records memory.RecordStore, index memory.VectorIndex, embedder memory.Embedder, opts ...Option) *Engine {
	repo := memory.NewRepository(records, index, embedder)
	searcher := memory.NewSearcher(index, embedder)
	e := &Engine{
		repo:          repo,
		searcher:      searcher,
		reconciler:    memory.NewReconciler(records, index, embedder),
		decomposer:    document.NewDecomposer(repo),
		reconstructor: document.NewReconstructor(searcher),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store persists content into both stores and returns the shared id.
func (e *Engine) Store(ctx context.Context, namespace, content string, metadata map[string]string) (string, error) {
	return e.repo.Store(ctx, namespace, content, metadata)
}

// Update re-embeds and replaces the memory in both stores.
func (e *Engine) Update(ctx context.Context, namespace, id, content string, metadata map[string]string) error {
	return e.repo.Update(ctx, namespace, id, content, metadata)
}

// Delete removes the memory from both stores.
func (e *Engine) Delete(ctx context.Context, namespace, id string) error {
	return e.repo.Delete(ctx, namespace, id)
}

// Get returns the record for (namespace, id).
func (e *Engine) Get(ctx context.Context, namespace, id string) (*memory.Record, error) {
	return e.repo.Get(ctx, namespace, id)
}

// Search performs threshold-filtered semantic retrieval.
func (e *Engine) Search(ctx context.Context, namespace, query string, opts *memory.SearchOptions) ([]memory.Result, error) {
	return e.searcher.Search(ctx, namespace, query, opts)
}

// Decompose splits a document into section memories plus a master
// index.
func (e *Engine) Decompose(ctx context.Context, namespace string, req document.Request) (*document.Result, error) {
	return e.decomposer.Decompose(ctx, namespace, req)
}

// Reconstruct reassembles a decomposed document.
func (e *Engine) Reconstruct(ctx context.Context, namespace, project string, docType document.Type) (string, error) {
	return e.reconstructor.Reconstruct(ctx, namespace, project, docType)
}

// ListByProject returns every record tagged with the project.
func (e *Engine) ListByProject(ctx context.Context, namespace, project string) ([]*memory.Record, error) {
	return e.repo.ListByProject(ctx, namespace, project)
}

// Reconcile repairs missing vector entries for the namespace.
func (e *Engine) Reconcile(ctx context.Context, namespace string) (*memory.Report, error) {
	return e.reconciler.Reconcile(ctx, namespace)
}
