// Package reconcile merges the extractor's candidates into a single
// record. Precedence is data, not control flow: each field has an ordered
// source list and the first non-empty observation wins, independent of
// the order candidates were collected in.
package reconcile

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/user/bookscraper-service/internal/domain"
)

// Order lists, per field, the sources consulted until one yields a
// non-empty value. Highest precedence first.
var Order = map[domain.Field][]domain.SourceKind{
	domain.FieldTitle: {
		domain.SourceCSS, domain.SourceDataAttribute, domain.SourceStructuredData,
	},
	domain.FieldAuthor: {
		domain.SourceComputedLink, domain.SourceComputedDescription, domain.SourceCSS,
		domain.SourceDataAttribute, domain.SourceStructuredData, domain.SourceDescriptionRegex,
	},
	domain.FieldSeries: {
		domain.SourceCSS,
	},
	domain.FieldDescription: {
		domain.SourceSection, domain.SourceStructuredData,
	},
	domain.FieldFormat: {
		domain.SourceSection, domain.SourceStructuredData,
	},
	domain.FieldPrice: {
		domain.SourceCSS, domain.SourceDataAttribute, domain.SourceStructuredData,
	},
	domain.FieldISBN: {
		domain.SourceSection, domain.SourceDataAttribute, domain.SourceStructuredData,
	},
	domain.FieldEAN: {
		domain.SourceSection, domain.SourceDataAttribute, domain.SourceStructuredData,
	},
	domain.FieldPublisher: {
		domain.SourceSection, domain.SourceStructuredData,
	},
	domain.FieldPublicationDate: {
		domain.SourceSection, domain.SourceStructuredData,
	},
	domain.FieldLanguage: {
		domain.SourceSection, domain.SourceStructuredData,
	},
	domain.FieldPageCount: {
		domain.SourceSection, domain.SourceStructuredData,
	},
	domain.FieldCoverURL: {
		domain.SourceImageScan,
	},
}

var seriesNumberRe = regexp.MustCompile(`(?i)\bBand\s+(\d+)\b`)

// Merge builds a record from one extraction. The description is merged
// first so the author fallback regex can compete over it at the lowest
// rank. The input extraction is not modified.
func Merge(ex *domain.Extraction) *domain.BookRecord {
	r := domain.NewBookRecord()

	assign := func(f domain.Field) string {
		c, ok := pick(ex.Candidates[f], Order[f])
		if !ok {
			return ""
		}
		return c.Value
	}

	r.Description = assign(domain.FieldDescription)

	authorCands := ex.Candidates[domain.FieldAuthor]
	if fallback := AuthorFromText(r.Description); fallback != "" {
		authorCands = append(slices.Clone(authorCands), domain.CandidateField{
			Field:  domain.FieldAuthor,
			Value:  fallback,
			Source: domain.SourceDescriptionRegex,
		})
	}
	if c, ok := pick(authorCands, Order[domain.FieldAuthor]); ok {
		r.Author = c.Value
	}

	r.Title, r.Subtitle = splitTitle(assign(domain.FieldTitle))
	r.Series, r.SeriesNumber = parseSeries(assign(domain.FieldSeries))
	r.Format = assign(domain.FieldFormat)
	r.Price = assign(domain.FieldPrice)
	r.ISBN = assign(domain.FieldISBN)
	r.EAN = assign(domain.FieldEAN)
	r.Publisher = assign(domain.FieldPublisher)
	r.PublicationDate = assign(domain.FieldPublicationDate)
	r.Language = assign(domain.FieldLanguage)
	r.PageCount = assign(domain.FieldPageCount)
	r.CoverURL = assign(domain.FieldCoverURL)
	if len(ex.Categories) > 0 {
		r.Categories = slices.Clone(ex.Categories)
	}

	return r
}

// pick returns the winning candidate: the first source in the precedence
// order that has a non-empty observation.
func pick(cands []domain.CandidateField, order []domain.SourceKind) (domain.CandidateField, bool) {
	for rank, src := range order {
		for _, c := range cands {
			if c.Source != src || strings.TrimSpace(c.Value) == "" {
				continue
			}
			c.Rank = rank
			return c, true
		}
	}
	return domain.CandidateField{}, false
}

// splitTitle separates a "Titel | Untertitel" winner into both parts.
func splitTitle(full string) (title, subtitle string) {
	before, after, found := strings.Cut(full, "|")
	if !found {
		return strings.TrimSpace(full), ""
	}
	return strings.TrimSpace(before), strings.TrimSpace(after)
}

// parseSeries strips the "Band <n>" marker from the series banner text
// and captures the number separately.
func parseSeries(raw string) (string, int) {
	if raw == "" {
		return "", 0
	}
	m := seriesNumberRe.FindStringSubmatchIndex(raw)
	if m == nil {
		return strings.TrimSpace(raw), 0
	}
	n, _ := strconv.Atoi(raw[m[2]:m[3]])
	name := raw[:m[0]] + raw[m[1]:]
	name = strings.Trim(strings.TrimSpace(name), "-–—,:·")
	return strings.TrimSpace(name), n
}
