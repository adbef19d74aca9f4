package domain

import "strings"

// Field names a BookRecord field that candidates can be collected for.
type Field string

const (
	FieldTitle           Field = "title"
	FieldAuthor          Field = "author"
	FieldSeries          Field = "series"
	FieldDescription     Field = "description"
	FieldFormat          Field = "format"
	FieldPrice           Field = "price"
	FieldISBN            Field = "isbn"
	FieldEAN             Field = "ean"
	FieldPublisher       Field = "publisher"
	FieldPublicationDate Field = "publicationDate"
	FieldLanguage        Field = "language"
	FieldPageCount       Field = "pageCount"
	FieldCoverURL        Field = "coverUrl"
)

// SourceKind identifies the in-page source a candidate value came from.
// The reconciler's precedence tables are expressed in this vocabulary.
type SourceKind string

const (
	// SourceComputedLink is the renderer's in-page author guess resolved
	// by following the author hyperlink.
	SourceComputedLink SourceKind = "computed-link"
	// SourceComputedDescription is the renderer's in-page author guess
	// pattern-matched out of the description node.
	SourceComputedDescription SourceKind = "computed-description"
	// SourceCSS is a value selected by an ordered CSS selector cascade.
	SourceCSS SourceKind = "css"
	// SourceDataAttribute is a value harvested from a data-* attribute.
	SourceDataAttribute SourceKind = "data-attribute"
	// SourceStructuredData is a value from an embedded JSON-LD object.
	SourceStructuredData SourceKind = "structured-data"
	// SourceSection is a value read by the bounded-section scan.
	SourceSection SourceKind = "section"
	// SourceDescriptionRegex is the text-pattern author fallback.
	SourceDescriptionRegex SourceKind = "description-regex"
	// SourceImageScan is a cover URL found by scanning page images.
	SourceImageScan SourceKind = "image-scan"
)

// CandidateField is one source's observed value for one field. Candidates
// are ephemeral: created during extraction, consumed by the reconciler,
// never persisted. Rank is assigned by the reconciler from its precedence
// table when the candidate is considered.
type CandidateField struct {
	Field  Field
	Value  string
	Source SourceKind
	Rank   int
}

// CandidateSet groups candidates by field. Empty values are dropped on
// insert so the reconciler only ever sees usable observations.
type CandidateSet map[Field][]CandidateField

// Add records one observation. Whitespace-only values are discarded.
func (cs CandidateSet) Add(f Field, source SourceKind, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	cs[f] = append(cs[f], CandidateField{Field: f, Value: value, Source: source})
}

// Extraction is the complete candidate yield of one rendered page.
// Categories are single-source (breadcrumb cascade) and ordered, so they
// are carried whole instead of as per-value candidates.
type Extraction struct {
	Candidates CandidateSet
	Categories []string
}

// NewExtraction returns an empty extraction ready to be filled.
func NewExtraction() *Extraction {
	return &Extraction{Candidates: CandidateSet{}}
}
