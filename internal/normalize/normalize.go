// Package normalize derives canonical machine forms alongside the raw
// display values. Every transform is pure, idempotent and field-local;
// raw fields are never discarded. Applying the normalizer to an already
// normalized record is a no-op.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/user/bookscraper-service/internal/domain"
)

var (
	priceValueRe = regexp.MustCompile(`\d+[.,]\d+`)
	currencyRe   = regexp.MustCompile(`[€$£]|\b[A-Z]{3}\b`)
	digitRunRe   = regexp.MustCompile(`\d+`)
	isbnJunkRe   = regexp.MustCompile(`[^0-9Xx]`)
	eanJunkRe    = regexp.MustCompile(`[^0-9]`)
)

// dateLayouts are tried after the DD.MM.YYYY display form.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2. January 2006",
	"January 2, 2006",
	"2 January 2006",
}

// languageCodes maps lowercased language names to ISO 639-1 codes.
// Unmatched languages keep their raw text and get no code.
var languageCodes = map[string]string{
	"deutsch":     "de",
	"german":      "de",
	"englisch":    "en",
	"english":     "en",
	"französisch": "fr",
	"french":      "fr",
	"spanisch":    "es",
	"spanish":     "es",
	"italienisch": "it",
	"italian":     "it",
}

// Apply returns a normalized copy of the record.
func Apply(r *domain.BookRecord) *domain.BookRecord {
	out := r.Clone()
	normalizePrice(out)
	normalizeDate(out)
	normalizePageCount(out)
	normalizeCodes(out)
	normalizeLanguage(out)
	return out
}

// normalizePrice guarantees a currency suffix on the display price and
// parses the first decimal group as the numeric value, decimal comma
// converted to dot.
func normalizePrice(r *domain.BookRecord) {
	r.PriceValue = nil
	if r.Price == "" {
		return
	}
	if !currencyRe.MatchString(r.Price) {
		r.Price = strings.TrimSpace(r.Price) + " €"
	}
	m := priceValueRe.FindString(r.Price)
	if m == "" {
		return
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64)
	if err != nil {
		return
	}
	r.PriceValue = &v
}

// normalizeDate derives the ISO form, trying the DD.MM.YYYY display
// format first, then generic layouts. An unparseable date keeps its raw
// value only.
func normalizeDate(r *domain.BookRecord) {
	r.PublicationDateISO = ""
	raw := strings.TrimSpace(r.PublicationDate)
	if raw == "" {
		return
	}
	if t, err := time.Parse("02.01.2006", raw); err == nil {
		r.PublicationDateISO = t.Format("2006-01-02")
		return
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			r.PublicationDateISO = t.Format("2006-01-02")
			return
		}
	}
}

func normalizePageCount(r *domain.BookRecord) {
	r.PageCountValue = nil
	m := digitRunRe.FindString(r.PageCount)
	if m == "" {
		return
	}
	if n, err := strconv.Atoi(m); err == nil {
		r.PageCountValue = &n
	}
}

// normalizeCodes strips everything but digits (and X for ISBN) from the
// identifier fields.
func normalizeCodes(r *domain.BookRecord) {
	r.ISBNClean = isbnJunkRe.ReplaceAllString(r.ISBN, "")
	r.EANClean = eanJunkRe.ReplaceAllString(r.EAN, "")
}

func normalizeLanguage(r *domain.BookRecord) {
	if code, ok := languageCodes[strings.ToLower(strings.TrimSpace(r.Language))]; ok {
		r.LanguageCode = code
	}
}
