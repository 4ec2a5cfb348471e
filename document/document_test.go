package document

import (
	"strings"
	"testing"
)

func TestInferType(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Type
	}{
		{"product requirements keyword", "This document lists the Product Requirements for v2", TypePRD},
		{"user stories keyword", "Here are the user stories we agreed on", TypePRD},
		{"acceptance criteria keyword", "Acceptance criteria: the page loads", TypePRD},
		{"architecture keyword", "High-level architecture of the ingest pipeline", TypeTechnicalSpec},
		{"api reference keyword", "API Reference for the v1 endpoints", TypeTechnicalSpec},
		{"feature request keyword", "Feature request: export to CSV", TypeFeatureRequest},
		{"user story singular", "As a user story this covers login", TypeFeatureRequest},
		{"journal keyword", "Journal entry for Monday", TypeJournal},
		{"no keywords", "Some plain notes about nothing in particular", TypeDocumentation},
		// PRD rules run before FeatureRequest rules, so a text with
		// both classifies as PRD.
		{"rule order", "user stories and a feature request", TypePRD},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferType(tt.text); got != tt.want {
				t.Errorf("InferType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplit_MarkdownHeaders(t *testing.T) {
	text := "# Auth PRD\n\nIntro paragraph.\n\n## Requirements\n\nMust support SSO.\n\n## Timeline\n\nQ3."
	sections := Split(text, TypeDocumentation)

	if len(sections) != 3 {
		t.Fatalf("Expected 3 sections, got %d", len(sections))
	}
	wantTitles := []string{"Auth PRD", "Requirements", "Timeline"}
	for i, want := range wantTitles {
		if sections[i].Title != want {
			t.Errorf("Section %d title = %q, want %q", i, sections[i].Title, want)
		}
		if sections[i].Kind != KindMarkdownHeader {
			t.Errorf("Section %d kind = %q, want %q", i, sections[i].Kind, KindMarkdownHeader)
		}
	}
	if sections[1].Body != "Must support SSO." {
		t.Errorf("Section body = %q", sections[1].Body)
	}
}

func TestSplit_EmptyHeaderBodiesDropped(t *testing.T) {
	text := "# Empty\n\n## Full\n\nActual content here.\n\n## Also Empty\n"
	sections := Split(text, TypeDocumentation)

	// Only the section with a body survives the structural split; a
	// single survivor is still a valid structural result.
	if len(sections) != 1 || sections[0].Title != "Full" {
		t.Fatalf("Expected only the Full section, got %+v", sections)
	}
}

func TestSplit_PRDPatternFallback(t *testing.T) {
	text := "Our launch plan. Problem Statement: users cannot log in with SSO today. " +
		"Success Criteria: 95% of logins succeed on the first attempt."
	sections := Split(text, TypePRD)

	if len(sections) != 2 {
		t.Fatalf("Expected 2 pattern sections, got %d: %+v", len(sections), sections)
	}
	if sections[0].Title != "Problem Statement" || sections[1].Title != "Success Criteria" {
		t.Errorf("Unexpected titles: %q, %q", sections[0].Title, sections[1].Title)
	}
	if !strings.Contains(sections[0].Body, "users cannot log in") {
		t.Errorf("Problem Statement body = %q", sections[0].Body)
	}
	if sections[0].Kind != KindPRDPattern {
		t.Errorf("Kind = %q, want %q", sections[0].Kind, KindPRDPattern)
	}
}

func TestSplit_PatternFallbackOnlyForPRD(t *testing.T) {
	text := "Problem Statement: something is broken and this line is quite long enough."
	sections := Split(text, TypeDocumentation)

	// Non-PRD documents skip the pattern tier and fall through to
	// paragraphs.
	if len(sections) != 1 || sections[0].Kind != KindParagraph {
		t.Fatalf("Expected one paragraph section, got %+v", sections)
	}
}

func TestSplit_ParagraphFallback(t *testing.T) {
	long1 := strings.Repeat("alpha ", 14) // ~84 chars
	long2 := strings.Repeat("beta ", 17)  // ~85 chars
	text := long1 + "\n\nshort\n\n" + long2
	sections := Split(text, TypeDocumentation)

	if len(sections) != 2 {
		t.Fatalf("Expected 2 paragraph sections, got %d", len(sections))
	}
	if sections[0].Title != "Part 1" || sections[1].Title != "Part 2" {
		t.Errorf("Unexpected titles: %q, %q", sections[0].Title, sections[1].Title)
	}
}

func TestSplit_WholeDocumentFallback(t *testing.T) {
	text := "tiny note"
	sections := Split(text, TypeDocumentation)

	if len(sections) != 1 {
		t.Fatalf("Expected 1 section, got %d", len(sections))
	}
	if sections[0].Title != "Complete Document" || sections[0].Kind != KindWholeDocument {
		t.Errorf("Unexpected fallback section: %+v", sections[0])
	}
	if sections[0].Body != text {
		t.Errorf("Whole-document body should be the full text")
	}
}

func TestSplit_DeepHeadersIgnored(t *testing.T) {
	text := "#### Too Deep\n\nbody one here\n\n#### Also Deep\n\nbody two here"
	sections := Split(text, TypeDocumentation)

	for _, sec := range sections {
		if sec.Kind == KindMarkdownHeader {
			t.Errorf("Level-4 headers must not produce structural sections: %+v", sec)
		}
	}
}
