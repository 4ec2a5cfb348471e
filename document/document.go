// Package document decomposes raw document text into ordered,
// individually retrievable sections and reassembles them on demand. An
// artifact is never stored as an entity: it is the set of section
// memories for a (project, documentType) pair plus one master index
// memory enumerating them.
//
// Decomposition is heuristic, an ordered ladder of strategies where
// each tier only engages if the previous produced nothing usable:
// markdown headers, PRD pattern windows, paragraphs, whole document.
package document

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Type classifies a document for decomposition and retrieval filtering.
type Type string

const (
	TypePRD            Type = "PRD"
	TypeTechnicalSpec  Type = "TechnicalSpec"
	TypeFeatureRequest Type = "FeatureRequest"
	TypeJournal        Type = "Journal"
	TypeDocumentation  Type = "Documentation"
)

// Section kinds, recorded as sectionType metadata so retrieval can tell
// which ladder tier produced a section.
const (
	KindMarkdownHeader = "markdown-header"
	KindPRDPattern     = "prd-pattern"
	KindParagraph      = "paragraph"
	KindWholeDocument  = "whole-document"
	KindMasterIndex    = "master-index"
)

// MasterIndexSection is the reserved section name of an artifact's
// master index memory.
const MasterIndexSection = "Master Index"

// Section is one decomposed piece of a document before persistence.
type Section struct {
	Title string
	Body  string
	Kind  string
}

// typeRules map keyword presence to a document type. Evaluated in
// order; the first matching rule wins.
var typeRules = []struct {
	keywords []string
	docType  Type
}{
	{[]string{"product requirements", "user stories", "acceptance criteria"}, TypePRD},
	{[]string{"technical specification", "architecture", "api reference"}, TypeTechnicalSpec},
	{[]string{"feature request", "user story"}, TypeFeatureRequest},
	{[]string{"journal"}, TypeJournal},
}

// InferType scans the text for type-indicating keywords,
// case-insensitively, falling back to Documentation.
func InferType(text string) Type {
	lower := strings.ToLower(text)
	for _, rule := range typeRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.docType
			}
		}
	}
	return TypeDocumentation
}

// headerRe matches markdown headers of level 1-3 at line start.
var headerRe = regexp.MustCompile(`(?m)^#{1,3}[ \t]+(.+)$`)

// splitByHeaders splits on markdown headers. Each header starts a
// section titled by the header text, bodied by everything up to the
// next header. Sections with empty bodies are dropped.
func splitByHeaders(text string) []Section {
	matches := headerRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	var sections []Section
	for i, m := range matches {
		title := strings.TrimSpace(text[m[2]:m[3]])
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		body := strings.TrimSpace(text[m[1]:end])
		if body == "" {
			continue
		}
		sections = append(sections, Section{Title: title, Body: body, Kind: KindMarkdownHeader})
	}
	return sections
}

// prdSectionNames are the canonical PRD sections, in the order their
// pattern windows are tried.
var prdSectionNames = []string{
	"Executive Summary",
	"Problem Statement",
	"Solution Approach",
	"Requirements",
	"Success Criteria",
}

var prdSectionRes = func() []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(prdSectionNames))
	for i, name := range prdSectionNames {
		res[i] = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(name))
	}
	return res
}()

// extractPRDSections finds canonical PRD sections by keyword position.
// Each found section's window runs from its keyword to the start of the
// next recognized section, or end of text. Only matched sections are
// emitted, in document order.
func extractPRDSections(text string) []Section {
	type hit struct {
		name       string
		start, end int
	}
	var hits []hit
	for i, re := range prdSectionRes {
		loc := re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		hits = append(hits, hit{name: prdSectionNames[i], start: loc[0], end: loc[1]})
	}
	if len(hits) == 0 {
		return nil
	}

	// Windows are bounded by document position, not rule order.
	sort.Slice(hits, func(i, j int) bool { return hits[i].start < hits[j].start })

	var sections []Section
	for i, h := range hits {
		end := len(text)
		if i+1 < len(hits) {
			end = hits[i+1].start
		}
		body := strings.TrimSpace(strings.TrimLeft(text[h.end:end], ":"))
		if body == "" {
			continue
		}
		sections = append(sections, Section{Title: h.name, Body: body, Kind: KindPRDPattern})
	}
	return sections
}

var blankLineRe = regexp.MustCompile(`\n[ \t]*\n`)

// minParagraphLength filters out fragments too short to be worth
// retrieving on their own.
const minParagraphLength = 50

// splitParagraphs splits on blank lines, keeping paragraphs longer than
// minParagraphLength and labeling them sequentially.
func splitParagraphs(text string) []Section {
	var sections []Section
	for _, para := range blankLineRe.Split(text, -1) {
		para = strings.TrimSpace(para)
		if len(para) <= minParagraphLength {
			continue
		}
		sections = append(sections, Section{
			Title: "Part " + strconv.Itoa(len(sections)+1),
			Body:  para,
			Kind:  KindParagraph,
		})
	}
	return sections
}

// Split runs the decomposition ladder: structural split first, then the
// PRD pattern fallback when the structural split found at most one
// section, then a lone structural section, then paragraphs, and as the
// last resort the whole document as one section.
func Split(text string, docType Type) []Section {
	structural := splitByHeaders(text)
	if len(structural) > 1 {
		return structural
	}
	if docType == TypePRD {
		if sections := extractPRDSections(text); len(sections) > 0 {
			return sections
		}
	}
	if len(structural) == 1 {
		return structural
	}
	if sections := splitParagraphs(text); len(sections) > 0 {
		return sections
	}
	return []Section{{Title: "Complete Document", Body: text, Kind: KindWholeDocument}}
}
