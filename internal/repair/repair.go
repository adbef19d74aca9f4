// Package repair applies ordered known-defect fixes to a merged record.
// Repairs patch the record in place of re-running extraction; they are
// signatures of recurring page defects, not general rules.
package repair

import (
	"strings"

	"github.com/user/bookscraper-service/internal/domain"
	"github.com/user/bookscraper-service/internal/reconcile"
	"github.com/user/bookscraper-service/internal/sites"
)

// PlaceholderCover stands in when no cover image was found on the page.
const PlaceholderCover = "https://via.placeholder.com/150x225.png?text=Kein+Cover"

// seriesAuthorFixes pairs a series banner substring known to leak into
// the author field with that series' actual author. Single entry today;
// append here when another pairing shows up in production.
var seriesAuthorFixes = []struct {
	marker string
	author string
}{
	{marker: "Die Schule der magischen Tiere", author: "Margit Auer"},
}

// Apply runs the repairs in order on a copy of the record: placeholder
// cover, non-numeric page count, home-market language default, and the
// series-banner-as-author fix.
func Apply(r *domain.BookRecord, p *sites.Profile) *domain.BookRecord {
	out := r.Clone()

	if out.CoverURL == "" {
		out.CoverURL = PlaceholderCover
	}

	if out.PageCount != "" && !strings.ContainsAny(out.PageCount, "0123456789") {
		out.PageCount = ""
	}

	if out.Language == "" {
		out.Language = p.HomeLanguage
		out.LanguageCode = p.HomeLanguageCode
	}

	fixSeriesAuthor(out)

	return out
}

// fixSeriesAuthor repairs the recurring false positive where a series
// banner was read as the author. The description pattern extractor gets
// a second chance; the known series author is the last resort.
func fixSeriesAuthor(r *domain.BookRecord) {
	for _, fix := range seriesAuthorFixes {
		if !strings.Contains(r.Author, fix.marker) {
			continue
		}
		if a := reconcile.AuthorFromText(r.Description); a != "" {
			r.Author = a
		} else {
			r.Author = fix.author
		}
		return
	}
}
