package document

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/engram-ai/engram/memory"
)

// fakeSearcher returns canned results and records the options it was
// called with.
type fakeSearcher struct {
	results []memory.Result
	opts    *memory.SearchOptions
}

func (f *fakeSearcher) Search(ctx context.Context, namespace, query string, opts *memory.SearchOptions) ([]memory.Result, error) {
	f.opts = opts
	return f.results, nil
}

func sectionResult(id, title, body string) memory.Result {
	return memory.Result{
		ID:      id,
		Content: "PROJECT: auth\nDOCUMENT_TYPE: PRD\nSECTION: " + title + "\n\n" + body,
		Metadata: map[string]string{
			memory.MetaProject:      "auth",
			memory.MetaDocumentType: "PRD",
			memory.MetaSection:      title,
			memory.MetaTags:         "document, prd",
			memory.MetaPriority:     "Medium",
			memory.MetaTimestamp:    "2026-08-01T12:00:00Z",
		},
	}
}

func TestReconstructor_OrdersSectionsByPriorityTable(t *testing.T) {
	searcher := &fakeSearcher{results: []memory.Result{
		sectionResult("1", "Timeline", "Q3."),
		sectionResult("2", "Zebra Notes", "unknown title"),
		sectionResult("3", "Executive Summary", "The summary."),
		sectionResult("4", "Appendix", "another unknown"),
		sectionResult("5", "Requirements", "SSO."),
	}}
	r := NewReconstructor(searcher)

	text, err := r.Reconstruct(context.Background(), "u1", "auth", TypePRD)
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}

	// Known titles by table order, unknown titles last in lexicographic
	// order.
	order := []string{"Executive Summary", "Requirements", "Timeline", "Appendix", "Zebra Notes"}
	last := -1
	for _, title := range order {
		i := strings.Index(text, "## "+title)
		if i < 0 {
			t.Fatalf("Missing section %q in output", title)
		}
		if i < last {
			t.Errorf("Section %q out of order", title)
		}
		last = i
	}

	if !strings.Contains(text, "Sections: 5") {
		t.Errorf("Expected section count in header:\n%s", text)
	}
	// The metadata block is stripped from section bodies.
	if strings.Count(text, "SECTION: Timeline") != 0 {
		t.Errorf("Section metadata block should be stripped:\n%s", text)
	}
}

func TestReconstructor_AppendsMasterIndexRaw(t *testing.T) {
	master := memory.Result{
		ID:      "m",
		Content: "Document decomposed into 1 sections:\n1. Requirements (markdown-header) [1]",
		Metadata: map[string]string{
			memory.MetaSection: MasterIndexSection,
		},
	}
	searcher := &fakeSearcher{results: []memory.Result{
		sectionResult("1", "Requirements", "SSO."),
		master,
	}}
	r := NewReconstructor(searcher)

	text, err := r.Reconstruct(context.Background(), "u1", "auth", TypePRD)
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}
	if !strings.Contains(text, "Sections: 1") {
		t.Errorf("Master index must not count as a section:\n%s", text)
	}
	if !strings.Contains(text, master.Content) {
		t.Errorf("Master index content should be appended raw:\n%s", text)
	}
}

func TestReconstructor_ToleratesMissingMasterIndex(t *testing.T) {
	searcher := &fakeSearcher{results: []memory.Result{
		sectionResult("1", "Requirements", "SSO."),
	}}
	r := NewReconstructor(searcher)

	if _, err := r.Reconstruct(context.Background(), "u1", "auth", TypePRD); err != nil {
		t.Fatalf("Reconstruct should tolerate a missing master index: %v", err)
	}
}

func TestReconstructor_NotFound(t *testing.T) {
	r := NewReconstructor(&fakeSearcher{})

	_, err := r.Reconstruct(context.Background(), "u1", "ghost", TypePRD)
	if !errors.Is(err, memory.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestReconstructor_SelectionIsFilterDriven(t *testing.T) {
	searcher := &fakeSearcher{results: []memory.Result{
		sectionResult("1", "Requirements", "SSO."),
	}}
	r := NewReconstructor(searcher)

	if _, err := r.Reconstruct(context.Background(), "u1", "auth", TypePRD); err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}
	if searcher.opts == nil {
		t.Fatal("Searcher was not called")
	}
	if searcher.opts.Threshold >= 0 {
		t.Errorf("Expected a below-zero threshold so similarity never filters, got %v", searcher.opts.Threshold)
	}
	if searcher.opts.Filter[memory.MetaProject] != "auth" ||
		searcher.opts.Filter[memory.MetaDocumentType] != "PRD" {
		t.Errorf("Expected exact project/type filter, got %v", searcher.opts.Filter)
	}
}
