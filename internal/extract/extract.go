// Package extract turns a rendered page into typed, source-tagged
// candidate values per field. Every source is unreliable on its own;
// nothing here decides which value wins; that is the reconciler's job.
// Per-source failures are absorbed: a source that yields nothing simply
// contributes no candidates.
package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/bookscraper-service/internal/domain"
	"github.com/user/bookscraper-service/internal/sites"
	"github.com/user/bookscraper-service/pkg/utils"
)

var seriesMarkerRe = regexp.MustCompile(`(?i)\bBand\s+(\d+)\b`)

// dataAttributeFields maps harvested data-* attribute names to fields.
var dataAttributeFields = []struct {
	attr  string
	field domain.Field
}{
	{"data-title", domain.FieldTitle},
	{"data-author", domain.FieldAuthor},
	{"data-isbn", domain.FieldISBN},
	{"data-ean", domain.FieldEAN},
	{"data-price", domain.FieldPrice},
}

// FromPage produces the full candidate yield of one rendered page. The
// renderer-computed fragments are incorporated first, then the DOM is
// mined: selector cascades, bounded sections, data-attribute harvest,
// embedded JSON-LD, cover image scan and breadcrumb categories. A page
// that cannot be parsed still yields the renderer fragments.
func FromPage(page *domain.RenderedPage, p *sites.Profile, pageURL string) *domain.Extraction {
	ex := domain.NewExtraction()

	incorporateComputedAuthor(ex, page.ComputedAuthor)
	incorporateDataAttributes(ex, page.DataAttributes)
	incorporateStructuredData(ex, page.StructuredData)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return ex
	}

	fromCascades(ex, doc, p)
	fromSections(ex, doc)
	harvestDataAttributes(ex, doc, p)
	incorporateStructuredData(ex, parseEmbeddedJSONLD(doc))
	scanCover(ex, doc, p, pageURL)
	ex.Categories = breadcrumbs(doc, p)

	return ex
}

func fromCascades(ex *domain.Extraction, doc *goquery.Document, p *sites.Profile) {
	ex.Candidates.Add(domain.FieldTitle, domain.SourceCSS, firstText(doc, p.Selectors.Title))
	ex.Candidates.Add(domain.FieldAuthor, domain.SourceCSS, firstText(doc, p.Selectors.Author))
	ex.Candidates.Add(domain.FieldPrice, domain.SourceCSS, firstText(doc, p.Selectors.Price))
	scanSeries(ex, doc, p)
}

// firstText walks an ordered selector cascade and returns the text of the
// first element, under the first selector, whose text is non-empty.
func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		var text string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if t := collapseSpace(s.Text()); t != "" {
				text = t
				return false
			}
			return true
		})
		if text != "" {
			return text
		}
	}
	return ""
}

// scanSeries looks for the series banner among interactive elements.
// Only elements carrying a "Band <n>" marker qualify; the reconciler
// splits the marker into series name and number later.
func scanSeries(ex *domain.Extraction, doc *goquery.Document, p *sites.Profile) {
	for _, sel := range p.Selectors.Series {
		var found string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if t := collapseSpace(s.Text()); t != "" && seriesMarkerRe.MatchString(t) {
				found = t
				return false
			}
			return true
		})
		if found != "" {
			ex.Candidates.Add(domain.FieldSeries, domain.SourceCSS, found)
			return
		}
	}
}

func incorporateComputedAuthor(ex *domain.Extraction, ca *domain.ComputedAuthor) {
	if ca == nil {
		return
	}
	switch ca.Source {
	case domain.AuthorSourceLink:
		ex.Candidates.Add(domain.FieldAuthor, domain.SourceComputedLink, ca.Value)
	case domain.AuthorSourceDescription:
		ex.Candidates.Add(domain.FieldAuthor, domain.SourceComputedDescription, ca.Value)
	}
}

func incorporateDataAttributes(ex *domain.Extraction, attrs map[string]string) {
	if len(attrs) == 0 {
		return
	}
	for _, m := range dataAttributeFields {
		if v, ok := attrs[m.attr]; ok {
			ex.Candidates.Add(m.field, domain.SourceDataAttribute, v)
		}
	}
}

// harvestDataAttributes collects every data-* attribute of the profile's
// marker elements, first occurrence per attribute name.
func harvestDataAttributes(ex *domain.Extraction, doc *goquery.Document, p *sites.Profile) {
	attrs := map[string]string{}
	for _, sel := range p.DataMarkers {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			for _, a := range s.Nodes[0].Attr {
				if !strings.HasPrefix(a.Key, "data-") || strings.TrimSpace(a.Val) == "" {
					continue
				}
				if _, seen := attrs[a.Key]; !seen {
					attrs[a.Key] = a.Val
				}
			}
		})
	}
	incorporateDataAttributes(ex, attrs)
}

// scanCover walks page images in document order: the first image matching
// the site's cover pattern wins, with the generic pattern as a second
// pass. Relative URLs are resolved against the page URL.
func scanCover(ex *domain.Extraction, doc *goquery.Document, p *sites.Profile, pageURL string) {
	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	var imageURLs []string
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok || strings.TrimSpace(src) == "" {
			src, _ = s.Attr("data-src")
		}
		src = strings.TrimSpace(src)
		if src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		if base != nil {
			if abs, err := utils.ToAbsoluteURL(base, src); err == nil {
				src = abs
			}
		}
		imageURLs = append(imageURLs, src)
	})

	for _, u := range imageURLs {
		if p.MatchesCover(u) {
			ex.Candidates.Add(domain.FieldCoverURL, domain.SourceImageScan, u)
			return
		}
	}
	for _, u := range imageURLs {
		if sites.MatchesGenericCover(u) {
			ex.Candidates.Add(domain.FieldCoverURL, domain.SourceImageScan, u)
			return
		}
	}
}

// breadcrumbs reads the category trail from the first cascade selector
// that yields any crumbs. Home crumbs and separator junk are dropped.
func breadcrumbs(doc *goquery.Document, p *sites.Profile) []string {
	for _, sel := range p.Selectors.Categories {
		var crumbs []string
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			t := collapseSpace(s.Text())
			if t == "" || t == ">" || t == "/" || isHomeCrumb(t) {
				return
			}
			if len(crumbs) > 0 && crumbs[len(crumbs)-1] == t {
				return
			}
			crumbs = append(crumbs, t)
		})
		if len(crumbs) > 0 {
			return crumbs
		}
	}
	return nil
}

func isHomeCrumb(t string) bool {
	switch strings.ToLower(t) {
	case "startseite", "home", "start":
		return true
	}
	return false
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
