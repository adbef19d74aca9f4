package reconcile

import (
	"regexp"
	"strings"
)

// namePat matches two to four capitalized words, umlauts included.
const namePat = `[A-ZÄÖÜ][a-zäöüß]+(?:\s+[A-ZÄÖÜ][a-zäöüß]+){1,3}`

// authorPatterns are tried in order against description text; the first
// match wins. German phrasings before English ones.
var authorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b[Vv]on\s+(` + namePat + `)`),
	regexp.MustCompile(`\b[Bb]y\s+(` + namePat + `)`),
	regexp.MustCompile(`\bAutor(?:in)?\s*:?\s+(` + namePat + `)`),
	regexp.MustCompile(`\bAuthor\s*:?\s+(` + namePat + `)`),
}

// AuthorFromText pattern-matches an author name out of free description
// text. It is the lowest-precedence author source and is re-run by the
// series/author repair.
func AuthorFromText(text string) string {
	if text == "" {
		return ""
	}
	for _, re := range authorPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
