package document

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/engram-ai/engram/memory"
)

// Store is the subset of the dual-store repository the decomposer
// needs: one persisted memory per section plus one for the master
// index.
type Store interface {
	Store(ctx context.Context, namespace, content string, metadata map[string]string) (string, error)
}

// Request describes one document to decompose.
type Request struct {
	// Text is the raw document.
	Text string

	// Project groups the resulting sections into one artifact together
	// with the document type.
	Project string

	// DocType is optional; when empty it is inferred from Text.
	DocType Type

	// Priority defaults to "Medium".
	Priority string

	// Tags defaults to "document, <type>".
	Tags string
}

// StoredSection records one successfully persisted section.
type StoredSection struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Kind  string `json:"kind"`
}

// Result reports a decomposition. Stored < Total means some sections
// failed to persist; they are logged and skipped, never fatal to the
// rest of the document.
type Result struct {
	DocType       Type            `json:"document_type"`
	Sections      []StoredSection `json:"sections"`
	Stored        int             `json:"stored"`
	Total         int             `json:"total"`
	MasterIndexID string          `json:"master_index_id,omitempty"`
}

// Decomposer splits documents and persists each section through the
// dual-store write path.
type Decomposer struct {
	store Store
	now   func() time.Time
}

// NewDecomposer creates a decomposer over the given store.
func NewDecomposer(store Store) *Decomposer {
	return &Decomposer{store: store, now: time.Now}
}

// SetClock overrides the timestamp source. Used by tests.
func (d *Decomposer) SetClock(now func() time.Time) {
	d.now = now
}

// Decompose splits the document via the strategy ladder and persists
// every section, then the master index enumerating the sections that
// made it. Section persistence failures are skipped; the master index's
// own failure is non-fatal too and leaves MasterIndexID empty, which is
// how an interrupted artifact write is detected later.
func (d *Decomposer) Decompose(ctx context.Context, namespace string, req Request) (*Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("decompose: empty document")
	}

	docType := req.DocType
	if docType == "" {
		docType = InferType(req.Text)
	}
	priority := req.Priority
	if priority == "" {
		priority = "Medium"
	}
	tags := req.Tags
	if tags == "" {
		tags = "document, " + strings.ToLower(string(docType))
	}
	timestamp := d.now().UTC().Format(time.RFC3339)

	sections := Split(req.Text, docType)
	result := &Result{DocType: docType, Total: len(sections)}
	log.Printf("[DECOMPOSE] Document for project %s split into %d sections (type=%s)",
		req.Project, len(sections), docType)

	for _, sec := range sections {
		metadata := map[string]string{
			memory.MetaProject:      req.Project,
			memory.MetaDocumentType: string(docType),
			memory.MetaSection:      sec.Title,
			memory.MetaSectionType:  sec.Kind,
			memory.MetaPriority:     priority,
			memory.MetaTags:         tags,
			memory.MetaTimestamp:    timestamp,
		}
		content := formatSectionContent(req.Project, docType, sec, priority, tags, timestamp)

		id, err := d.store.Store(ctx, namespace, content, metadata)
		if err != nil {
			log.Printf("[DECOMPOSE] Skipping section %q: %v", sec.Title, err)
			continue
		}
		result.Sections = append(result.Sections, StoredSection{ID: id, Title: sec.Title, Kind: sec.Kind})
	}
	result.Stored = len(result.Sections)

	if result.Stored > 0 {
		metadata := map[string]string{
			memory.MetaProject:      req.Project,
			memory.MetaDocumentType: string(docType),
			memory.MetaSection:      MasterIndexSection,
			memory.MetaSectionType:  KindMasterIndex,
			memory.MetaPriority:     priority,
			memory.MetaTags:         tags,
			memory.MetaTimestamp:    timestamp,
		}
		content := formatMasterIndex(req.Project, docType, result.Sections, timestamp)

		id, err := d.store.Store(ctx, namespace, content, metadata)
		if err != nil {
			// The artifact is usable without its index; reconstruction
			// tolerates the absence.
			log.Printf("[DECOMPOSE] Master index for project %s failed: %v", req.Project, err)
		} else {
			result.MasterIndexID = id
		}
	}

	log.Printf("[DECOMPOSE] Stored %d/%d sections for project %s", result.Stored, result.Total, req.Project)
	return result, nil
}

// formatSectionContent prepends the structural metadata block each
// section memory carries in its text.
func formatSectionContent(project string, docType Type, sec Section, priority, tags, timestamp string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "PROJECT: %s\n", project)
	fmt.Fprintf(&b, "DOCUMENT_TYPE: %s\n", docType)
	fmt.Fprintf(&b, "SECTION: %s\n", sec.Title)
	fmt.Fprintf(&b, "SECTION_TYPE: %s\n", sec.Kind)
	fmt.Fprintf(&b, "PRIORITY: %s\n", priority)
	fmt.Fprintf(&b, "TAGS: %s\n", tags)
	fmt.Fprintf(&b, "TIMESTAMP: %s\n", timestamp)
	b.WriteString("\n")
	b.WriteString(sec.Body)
	return b.String()
}

// formatMasterIndex enumerates the stored sections of an artifact.
func formatMasterIndex(project string, docType Type, sections []StoredSection, timestamp string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "PROJECT: %s\n", project)
	fmt.Fprintf(&b, "DOCUMENT_TYPE: %s\n", docType)
	fmt.Fprintf(&b, "SECTION: %s\n", MasterIndexSection)
	fmt.Fprintf(&b, "TIMESTAMP: %s\n", timestamp)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Document decomposed into %d sections:\n", len(sections))
	for i, sec := range sections {
		fmt.Fprintf(&b, "%d. %s (%s) [%s]\n", i+1, sec.Title, sec.Kind, sec.ID)
	}
	return b.String()
}
