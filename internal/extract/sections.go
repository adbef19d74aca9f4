package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/bookscraper-service/internal/domain"
)

// German retail detail labels, lowercased, mapped to record fields.
var detailLabelFields = map[string]domain.Field{
	"verlag":             domain.FieldPublisher,
	"erscheinungsdatum":  domain.FieldPublicationDate,
	"erscheinungstermin": domain.FieldPublicationDate,
	"sprache":            domain.FieldLanguage,
	"seitenzahl":         domain.FieldPageCount,
	"ean":                domain.FieldEAN,
	"isbn":               domain.FieldISBN,
	"format":             domain.FieldFormat,
	"einband":            domain.FieldFormat,
}

var (
	descriptionHeadings = []string{"beschreibung"}
	detailHeadings      = []string{"details", "produktdetails"}
)

type labelValue struct {
	label string
	value string
}

func fromSections(ex *domain.Extraction, doc *goquery.Document) {
	if desc := sectionText(doc, descriptionHeadings); desc != "" {
		ex.Candidates.Add(domain.FieldDescription, domain.SourceSection, desc)
	}
	for _, pair := range detailPairs(doc, detailHeadings) {
		if f, ok := detailLabelFields[pair.label]; ok {
			ex.Candidates.Add(f, domain.SourceSection, pair.value)
		}
	}
}

// sectionHeading finds the first heading element whose text equals one of
// the given titles (case-insensitive).
func sectionHeading(doc *goquery.Document, titles []string) *goquery.Selection {
	var found *goquery.Selection
	doc.Find("h1, h2, h3, h4, h5, h6").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		t := strings.ToLower(collapseSpace(s.Text()))
		for _, want := range titles {
			if t == want {
				found = s
				return false
			}
		}
		return true
	})
	return found
}

func headingLevel(nodeName string) int {
	if len(nodeName) == 2 && nodeName[0] == 'h' && nodeName[1] >= '1' && nodeName[1] <= '6' {
		return int(nodeName[1] - '0')
	}
	return 0
}

// sectionText collects the text of the heading's following siblings until
// the next heading of the same or a shallower level.
func sectionText(doc *goquery.Document, titles []string) string {
	h := sectionHeading(doc, titles)
	if h == nil {
		return ""
	}
	level := headingLevel(goquery.NodeName(h))

	var parts []string
	for s := h.Next(); s.Length() > 0; s = s.Next() {
		if lv := headingLevel(goquery.NodeName(s)); lv > 0 && lv <= level {
			break
		}
		if t := collapseSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

// detailPairs walks the details section. Sub-headings (headings deeper
// than the section heading) set the active label; non-heading siblings
// accumulate as that label's value until the next sub-heading or the
// section boundary.
func detailPairs(doc *goquery.Document, titles []string) []labelValue {
	h := sectionHeading(doc, titles)
	if h == nil {
		return nil
	}
	level := headingLevel(goquery.NodeName(h))

	var pairs []labelValue
	var label, value string
	flush := func() {
		if label != "" && value != "" {
			pairs = append(pairs, labelValue{label: label, value: value})
		}
		value = ""
	}

	for s := h.Next(); s.Length() > 0; s = s.Next() {
		lv := headingLevel(goquery.NodeName(s))
		if lv > 0 && lv <= level {
			break
		}
		if lv > level {
			flush()
			label = strings.ToLower(collapseSpace(s.Text()))
			continue
		}
		if label == "" {
			continue
		}
		if t := collapseSpace(s.Text()); t != "" {
			if value != "" {
				value += " "
			}
			value += t
		}
	}
	flush()
	return pairs
}
