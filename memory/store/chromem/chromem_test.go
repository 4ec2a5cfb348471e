package chromem

import (
	"context"
	"testing"

	"github.com/engram-ai/engram/memory"
)

func entry(id string, vector []float32, meta map[string]string) memory.VectorEntry {
	return memory.VectorEntry{ID: id, Vector: vector, Metadata: meta}
}

func TestIndex_UpsertAndQuery(t *testing.T) {
	ctx := context.Background()
	index := New()

	err := index.Upsert(ctx, "u1", []memory.VectorEntry{
		entry("a", []float32{1, 0, 0}, map[string]string{"content": "alpha"}),
		entry("b", []float32{0, 1, 0}, map[string]string{"content": "beta"}),
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	matches, err := index.Query(ctx, "u1", []float32{1, 0, 0}, 10, nil)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(matches) == 0 || matches[0].ID != "a" {
		t.Fatalf("Expected a as the top match, got %+v", matches)
	}
	if matches[0].Score < 0.99 {
		t.Errorf("Expected near-1.0 similarity for identical vector, got %v", matches[0].Score)
	}
	if matches[0].Content != "alpha" {
		t.Errorf("Expected content carried through, got %q", matches[0].Content)
	}
}

func TestIndex_UpsertReplacesSameID(t *testing.T) {
	ctx := context.Background()
	index := New()

	if err := index.Upsert(ctx, "u1", []memory.VectorEntry{
		entry("a", []float32{1, 0, 0}, map[string]string{"content": "old"}),
	}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := index.Upsert(ctx, "u1", []memory.VectorEntry{
		entry("a", []float32{0, 1, 0}, map[string]string{"content": "new"}),
	}); err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}

	matches, err := index.Query(ctx, "u1", []float32{0, 1, 0}, 10, nil)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("Expected 1 entry after replace, got %d", len(matches))
	}
	if matches[0].Content != "new" {
		t.Errorf("Expected replaced content, got %q", matches[0].Content)
	}
}

func TestIndex_MetadataFilter(t *testing.T) {
	ctx := context.Background()
	index := New()

	if err := index.Upsert(ctx, "u1", []memory.VectorEntry{
		entry("a", []float32{1, 0, 0}, map[string]string{"project": "auth", "content": "a"}),
		entry("b", []float32{1, 0, 0}, map[string]string{"project": "billing", "content": "b"}),
	}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	matches, err := index.Query(ctx, "u1", []float32{1, 0, 0}, 10, map[string]string{"project": "auth"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != "a" {
		t.Fatalf("Expected only the auth entry, got %+v", matches)
	}
}

func TestIndex_ExistingIDs(t *testing.T) {
	ctx := context.Background()
	index := New()

	if err := index.Upsert(ctx, "u1", []memory.VectorEntry{
		entry("a", []float32{1, 0, 0}, nil),
		entry("b", []float32{0, 1, 0}, nil),
	}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	existing, err := index.ExistingIDs(ctx, "u1", []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("ExistingIDs failed: %v", err)
	}
	if len(existing) != 2 {
		t.Fatalf("Expected 2 existing ids, got %v", existing)
	}
}

func TestIndex_QueryEmptyNamespace(t *testing.T) {
	index := New()

	matches, err := index.Query(context.Background(), "empty", []float32{1, 0, 0}, 10, nil)
	if err != nil {
		t.Fatalf("Query of empty namespace failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("Expected no matches, got %d", len(matches))
	}
}

func TestIndex_DeleteIsNamespaceScoped(t *testing.T) {
	ctx := context.Background()
	index := New()

	// The same id in two namespaces: deleting in one must not touch
	// the other.
	if err := index.Upsert(ctx, "u1", []memory.VectorEntry{entry("shared", []float32{1, 0, 0}, nil)}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := index.Upsert(ctx, "u2", []memory.VectorEntry{entry("shared", []float32{1, 0, 0}, nil)}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if err := index.DeleteByID(ctx, "u1", "shared"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	gone, _ := index.ExistingIDs(ctx, "u1", []string{"shared"})
	if len(gone) != 0 {
		t.Error("Entry should be gone from u1")
	}
	kept, _ := index.ExistingIDs(ctx, "u2", []string{"shared"})
	if len(kept) != 1 {
		t.Error("u2's same-id entry must survive u1's delete")
	}
}
