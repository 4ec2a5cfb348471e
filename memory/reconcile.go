package memory

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Reconciliation pacing. Batch size stays under typical per-invocation
// outbound-call ceilings on serverless platforms; the delays keep the
// embedding provider under its rate limit.
const (
	DefaultBatchSize  = 10
	DefaultEmbedDelay = 200 * time.Millisecond
	DefaultBatchDelay = 1 * time.Second
)

// ItemError records one memory that could not be restored.
type ItemError struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Report is the outcome of one reconciliation pass. When the pass is
// cut short by context cancellation, Restored still counts everything
// committed before the cut.
type Report struct {
	Restored int         `json:"restored"`
	Errors   []ItemError `json:"errors,omitempty"`
}

// Reconciler repairs drift between the record store and the vector
// index: record rows with no vector entry get their embedding
// regenerated and upserted under the same identity. Reads the record
// store, writes the vector index only. Idempotent.
type Reconciler struct {
	records  RecordStore
	index    VectorIndex
	embedder Embedder

	batchSize  int
	embedDelay time.Duration
	batchDelay time.Duration
}

// NewReconciler creates a reconciler with default pacing.
func NewReconciler(records RecordStore, index VectorIndex, embedder Embedder) *Reconciler {
	return &Reconciler{
		records:    records,
		index:      index,
		embedder:   embedder,
		batchSize:  DefaultBatchSize,
		embedDelay: DefaultEmbedDelay,
		batchDelay: DefaultBatchDelay,
	}
}

// SetPacing overrides batch size and delays. Tests zero the delays.
func (r *Reconciler) SetPacing(batchSize int, embedDelay, batchDelay time.Duration) {
	if batchSize > 0 {
		r.batchSize = batchSize
	}
	r.embedDelay = embedDelay
	r.batchDelay = batchDelay
}

// Reconcile finds every record in the namespace with no vector entry
// and regenerates it. Work proceeds in fixed-size batches: one batched
// existence check, serial re-embedding with an inter-call delay, one
// batched upsert, then an inter-batch delay. Per-item embedding
// failures are recorded and skipped, not retried. Cancellation between
// batches returns the partial report alongside ctx.Err().
func (r *Reconciler) Reconcile(ctx context.Context, namespace string) (*Report, error) {
	rows, err := r.records.ListByNamespace(ctx, namespace)
	if err != nil {
		return nil, &RecordStoreError{Err: fmt.Errorf("list namespace %s: %w", namespace, err)}
	}

	report := &Report{}
	log.Printf("[RECONCILE] Checking %d records in namespace %s", len(rows), namespace)

	for start := 0; start < len(rows); start += r.batchSize {
		if err := ctx.Err(); err != nil {
			log.Printf("[RECONCILE] Cancelled after restoring %d, returning partial report", report.Restored)
			return report, err
		}

		end := start + r.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		ids := make([]string, len(batch))
		for i, rec := range batch {
			ids[i] = rec.ID
		}
		existing, err := r.index.ExistingIDs(ctx, namespace, ids)
		if err != nil {
			return report, &VectorStoreError{Err: fmt.Errorf("existence check: %w", err)}
		}
		present := make(map[string]bool, len(existing))
		for _, id := range existing {
			present[id] = true
		}

		var entries []VectorEntry
		for _, rec := range batch {
			if present[rec.ID] {
				continue
			}
			vector, err := r.embedder.Embed(ctx, rec.Content)
			if err != nil {
				log.Printf("[RECONCILE] Skipping %s: %v", rec.ID, err)
				report.Errors = append(report.Errors, ItemError{ID: rec.ID, Reason: err.Error()})
				continue
			}
			meta := cloneMetadata(rec.Metadata)
			meta[MetaContent] = rec.Content
			entries = append(entries, VectorEntry{ID: rec.ID, Vector: vector, Metadata: meta})

			if err := sleepCtx(ctx, r.embedDelay); err != nil {
				// Entry is embedded but not yet upserted; drop it and
				// report what was committed so far.
				return report, err
			}
		}

		if len(entries) > 0 {
			if err := r.index.Upsert(ctx, namespace, entries); err != nil {
				return report, &VectorStoreError{Err: fmt.Errorf("batch upsert: %w", err)}
			}
			report.Restored += len(entries)
			log.Printf("[RECONCILE] Restored %d vectors in batch %d", len(entries), start/r.batchSize+1)
		}

		if end < len(rows) {
			if err := sleepCtx(ctx, r.batchDelay); err != nil {
				return report, err
			}
		}
	}

	log.Printf("[RECONCILE] Done: restored=%d errors=%d", report.Restored, len(report.Errors))
	return report, nil
}

// sleepCtx sleeps for d unless the context is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
