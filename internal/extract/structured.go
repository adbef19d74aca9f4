package extract

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"

	"github.com/user/bookscraper-service/internal/domain"
)

// incorporateStructuredData maps JSON-LD Book/Product objects into
// candidates. @graph wrappers are unwrapped, @type may be a string or an
// array, and the author/publisher/language/image values appear in the
// wild as strings, objects, or arrays of either.
func incorporateStructuredData(ex *domain.Extraction, blocks []map[string]any) {
	for _, b := range blocks {
		for _, obj := range unwrapGraph(b) {
			if !isBookish(obj) {
				continue
			}
			mapObject(ex, obj)
		}
	}
}

func unwrapGraph(b map[string]any) []map[string]any {
	g, ok := b["@graph"].([]any)
	if !ok {
		return []map[string]any{b}
	}
	var out []map[string]any
	for _, item := range g {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func isBookish(obj map[string]any) bool {
	switch t := obj["@type"].(type) {
	case string:
		return t == "Book" || t == "Product"
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok && (s == "Book" || s == "Product") {
				return true
			}
		}
	}
	return false
}

func mapObject(ex *domain.Extraction, obj map[string]any) {
	add := func(f domain.Field, v string) {
		ex.Candidates.Add(f, domain.SourceStructuredData, v)
	}
	add(domain.FieldTitle, stringValue(obj["name"]))
	add(domain.FieldAuthor, nameValue(obj["author"]))
	add(domain.FieldPublisher, nameValue(obj["publisher"]))
	add(domain.FieldPublicationDate, stringValue(obj["datePublished"]))
	add(domain.FieldLanguage, nameValue(obj["inLanguage"]))
	add(domain.FieldISBN, stringValue(obj["isbn"]))
	add(domain.FieldEAN, stringValue(obj["gtin13"]))
	add(domain.FieldPageCount, numericString(obj["numberOfPages"]))
	add(domain.FieldDescription, flattenHTML(stringValue(obj["description"])))
	add(domain.FieldFormat, formatValue(obj["bookFormat"]))
	add(domain.FieldCoverURL, imageValue(obj["image"]))
	add(domain.FieldPrice, offerPrice(obj["offers"]))
}

// parseEmbeddedJSONLD reads application/ld+json blocks straight from the
// DOM, covering renders where the in-page probe yielded nothing.
func parseEmbeddedJSONLD(doc *goquery.Document) []map[string]any {
	var blocks []map[string]any
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return
		}
		blocks = append(blocks, objectsIn(v)...)
	})
	return blocks
}

// objectsIn flattens a decoded JSON-LD payload (object or nested arrays)
// into its top-level objects.
func objectsIn(v any) []map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return []map[string]any{t}
	case []any:
		var out []map[string]any
		for _, item := range t {
			out = append(out, objectsIn(item)...)
		}
		return out
	}
	return nil
}

func stringValue(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// nameValue handles schema.org values that appear as a plain string, an
// object carrying a name, or an array of either.
func nameValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		if s := stringValue(t["name"]); s != "" {
			return s
		}
		return stringValue(t["@value"])
	case []any:
		for _, item := range t {
			if s := nameValue(item); s != "" {
				return s
			}
		}
	}
	return ""
}

func numericString(v any) string {
	switch t := v.(type) {
	case float64:
		if t == math.Trunc(t) {
			return strconv.Itoa(int(t))
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case string:
		return strings.TrimSpace(t)
	}
	return ""
}

func formatValue(v any) string {
	s := stringValue(v)
	for _, prefix := range []string{"http://schema.org/", "https://schema.org/", "schema.org/"} {
		s = strings.TrimPrefix(s, prefix)
	}
	return s
}

func imageValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		return stringValue(t["url"])
	case []any:
		for _, item := range t {
			if s := imageValue(item); s != "" {
				return s
			}
		}
	}
	return ""
}

// offerPrice renders offers.price plus currency in the display form the
// rest of the pipeline expects, EUR as the "<price> €" suffix form.
func offerPrice(v any) string {
	offer, ok := firstObject(v)
	if !ok {
		return ""
	}
	price := numericString(offer["price"])
	if price == "" {
		if spec, ok := offer["priceSpecification"].(map[string]any); ok {
			price = numericString(spec["price"])
		}
	}
	if price == "" {
		return ""
	}
	switch currency := stringValue(offer["priceCurrency"]); currency {
	case "", "EUR":
		return price + " €"
	default:
		return price + " " + currency
	}
}

func firstObject(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case []any:
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				return m, true
			}
		}
	}
	return nil, false
}

// flattenHTML renders HTML-bearing description values as readable text.
func flattenHTML(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	md, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(md)
}
