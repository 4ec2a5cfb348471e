package document

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/engram-ai/engram/memory"
)

// Searcher is the subset of semantic retrieval reconstruction needs.
// Reconstruction selects by metadata filter, not similarity; the query
// string only exists to produce a vector for the index call.
type Searcher interface {
	Search(ctx context.Context, namespace, query string, opts *memory.SearchOptions) ([]memory.Result, error)
}

// sectionOrder fixes the assembly order for well-known section titles.
// Unknown titles sort last, ties break lexicographically.
var sectionOrder = map[string]int{
	"Executive Summary": 1,
	"Overview":          2,
	"Problem Statement": 3,
	"Solution Approach": 4,
	"Requirements":      5,
	"Success Criteria":  6,
	"Timeline":          7,
}

const unknownSectionOrder = 999

// maxArtifactSections bounds how many memories one artifact lookup
// pulls from the index.
const maxArtifactSections = 200

// Reconstructor reassembles a decomposed document from its stored
// sections and master index.
type Reconstructor struct {
	searcher Searcher
}

// NewReconstructor creates a reconstructor over the given searcher.
func NewReconstructor(searcher Searcher) *Reconstructor {
	return &Reconstructor{searcher: searcher}
}

// Reconstruct retrieves every memory of the (project, docType) artifact
// in the namespace and reassembles the document: a header block, the
// sections in fixed order, then the raw master index if present.
// Returns memory.ErrNotFound when neither sections nor a master index
// exist. Missing individual sections are tolerated.
func (r *Reconstructor) Reconstruct(ctx context.Context, namespace, project string, docType Type) (string, error) {
	opts := &memory.SearchOptions{
		TopK: maxArtifactSections,
		// Selection is filter-driven; a negative threshold admits every
		// match regardless of how the generic query scores.
		Threshold: -1,
		Filter: map[string]string{
			memory.MetaProject:      project,
			memory.MetaDocumentType: string(docType),
		},
	}
	results, err := r.searcher.Search(ctx, namespace, "document sections for "+project, opts)
	if err != nil {
		return "", err
	}

	var master *memory.Result
	var sections []memory.Result
	for i := range results {
		if results[i].Metadata[memory.MetaSection] == MasterIndexSection {
			master = &results[i]
		} else {
			sections = append(sections, results[i])
		}
	}

	if master == nil && len(sections) == 0 {
		return "", fmt.Errorf("artifact %s/%s: %w", project, docType, memory.ErrNotFound)
	}

	sort.SliceStable(sections, func(i, j int) bool {
		ti := sections[i].Metadata[memory.MetaSection]
		tj := sections[j].Metadata[memory.MetaSection]
		oi, oj := orderOf(ti), orderOf(tj)
		if oi != oj {
			return oi < oj
		}
		return ti < tj
	})

	var b strings.Builder
	fmt.Fprintf(&b, "PROJECT: %s\n", project)
	fmt.Fprintf(&b, "DOCUMENT_TYPE: %s\n", docType)
	if len(sections) > 0 {
		meta := sections[0].Metadata
		fmt.Fprintf(&b, "TAGS: %s\n", meta[memory.MetaTags])
		fmt.Fprintf(&b, "PRIORITY: %s\n", meta[memory.MetaPriority])
		fmt.Fprintf(&b, "TIMESTAMP: %s\n", meta[memory.MetaTimestamp])
	}
	fmt.Fprintf(&b, "Sections: %d\n", len(sections))

	for _, sec := range sections {
		title := sec.Metadata[memory.MetaSection]
		b.WriteString("\n## ")
		b.WriteString(title)
		b.WriteString("\n\n")
		b.WriteString(stripMetadataHeader(sec.Content))
		b.WriteString("\n")
	}

	if master != nil {
		b.WriteString("\n")
		b.WriteString(master.Content)
	}

	log.Printf("[DOCUMENT] Reconstructed %s/%s from %d sections (master index: %v)",
		project, docType, len(sections), master != nil)
	return b.String(), nil
}

func orderOf(title string) int {
	if o, ok := sectionOrder[title]; ok {
		return o
	}
	return unknownSectionOrder
}

// stripMetadataHeader drops the structural metadata block prepended at
// decomposition time, leaving the section body.
func stripMetadataHeader(content string) string {
	if !strings.HasPrefix(content, "PROJECT:") {
		return content
	}
	if i := strings.Index(content, "\n\n"); i >= 0 {
		return strings.TrimSpace(content[i+2:])
	}
	return content
}
