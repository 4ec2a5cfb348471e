// Package memory implements the dual-store persistence core for AI
// session memories: durable text and metadata in a relational record
// store, embeddings in a vector index, correlated by a shared identity
// generated before either store is touched.
//
// The record store is the system of record. A memory may legitimately
// exist only there (a vector write failed mid-request); it must never
// exist only in the vector index. The Reconciler repairs the
// record-only state by regenerating missing vectors in rate-limited
// batches.
//
// Architecture:
//   - RecordStore: durable rows, scoped by namespace (sqlite for local use)
//   - VectorIndex: nearest-neighbor store with metadata filtering (chromem-go)
//   - Embedder: text-to-vector conversion (OpenAI-compatible, Ollama, mock)
//   - Repository: the dual-store write path
//   - Searcher: threshold-filtered semantic retrieval
//   - Reconciler: drift detection and repair
//
// All operations take an already-authenticated namespace string; nothing
// in this package performs authentication or crosses namespaces.
package memory
