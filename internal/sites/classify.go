package sites

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/user/bookscraper-service/internal/domain"
)

// Match is a successful classification: the owning site profile and the
// canonical form of the input URL (https scheme, lowercased host, query
// and fragment stripped).
type Match struct {
	Profile      *Profile
	CanonicalURL string
}

// Classify validates a raw URL against the profile table. It must run
// before any rendering: a URL that matches no profile's host and
// detail-page path shape fails with ErrInvalidURL and never reaches the
// renderer.
func (t *Table) Classify(rawURL string) (Match, error) {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return Match{}, fmt.Errorf("empty url: %w", domain.ErrInvalidURL)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Match{}, fmt.Errorf("parse %q: %w", rawURL, domain.ErrInvalidURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Match{}, fmt.Errorf("unsupported scheme %q: %w", u.Scheme, domain.ErrInvalidURL)
	}

	host := strings.ToLower(u.Hostname())
	path := strings.ToLower(u.Path)
	if host == "" || path == "" || path == "/" {
		return Match{}, fmt.Errorf("no product path in %q: %w", rawURL, domain.ErrInvalidURL)
	}

	for _, p := range t.profiles {
		if !p.matchesHost(host) {
			continue
		}
		if !p.matchesPath(path) {
			continue
		}
		return Match{Profile: p, CanonicalURL: canonicalize(u)}, nil
	}
	return Match{}, fmt.Errorf("no site matches %q: %w", rawURL, domain.ErrInvalidURL)
}

func (p *Profile) matchesHost(host string) bool {
	for _, h := range p.Hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

func (p *Profile) matchesPath(path string) bool {
	for _, m := range p.PathMarkers {
		if strings.Contains(path, m) {
			return true
		}
	}
	return false
}

func canonicalize(u *url.URL) string {
	c := *u
	c.Scheme = "https"
	c.Host = strings.ToLower(u.Hostname())
	c.User = nil
	c.RawQuery = ""
	c.Fragment = ""
	c.RawFragment = ""
	return c.String()
}
