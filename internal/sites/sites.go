// Package sites holds the site-profile table and the URL classifier.
// Profiles describe everything site-specific (hosts, detail-page path
// markers, selector cascades, consent dismissal) as data, so adding a
// retailer means adding a YAML block, not code.
package sites

import (
	_ "embed"
	"errors"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var profilesYAML []byte

var (
	ErrNoProfiles  = errors.New("site profile table is empty")
	ErrBadProfile  = errors.New("invalid site profile")
	ErrUnknownSite = errors.New("unknown site name")
)

// Fallback pattern for cover detection when the site pattern matches no image.
var genericCoverRe = regexp.MustCompile(`(?i)(cover|artikel|titel)`)

// Selectors are the ordered CSS cascades for one site. The first selector
// whose match yields non-empty text wins for that source.
type Selectors struct {
	Title       []string `yaml:"title"`
	Author      []string `yaml:"author"`
	Price       []string `yaml:"price"`
	Description []string `yaml:"description"`
	Categories  []string `yaml:"categories"`
	Series      []string `yaml:"series"`
	AuthorLink  []string `yaml:"author_link"`
	ContentWait string   `yaml:"content_wait"`
}

// Profile describes one modeled retailer.
type Profile struct {
	Name             string    `yaml:"name"`
	Hosts            []string  `yaml:"hosts"`
	PathMarkers      []string  `yaml:"path_markers"`
	HomeLanguage     string    `yaml:"home_language"`
	HomeLanguageCode string    `yaml:"home_language_code"`
	CoverPattern     string    `yaml:"cover_pattern"`
	ConsentSelectors []string  `yaml:"consent_selectors"`
	DataMarkers      []string  `yaml:"data_markers"`
	Selectors        Selectors `yaml:"selectors"`

	coverRe *regexp.Regexp
}

// MatchesCover reports whether an image URL looks like this site's cover
// asset path.
func (p *Profile) MatchesCover(imageURL string) bool {
	return p.coverRe != nil && p.coverRe.MatchString(imageURL)
}

// MatchesGenericCover is the site-independent fallback cover test, used
// when no image matches the site's own pattern.
func MatchesGenericCover(imageURL string) bool {
	return genericCoverRe.MatchString(imageURL)
}

// Table is the immutable set of loaded site profiles.
type Table struct {
	profiles []*Profile
}

// Load parses the embedded profile table and compiles its patterns.
func Load() (*Table, error) {
	return load(profilesYAML)
}

func load(raw []byte) (*Table, error) {
	var doc struct {
		Sites []*Profile `yaml:"sites"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse site profiles: %w", err)
	}
	if len(doc.Sites) == 0 {
		return nil, ErrNoProfiles
	}
	for _, p := range doc.Sites {
		if err := p.validate(); err != nil {
			return nil, err
		}
		re, err := regexp.Compile(p.CoverPattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: cover_pattern: %v", ErrBadProfile, p.Name, err)
		}
		p.coverRe = re
	}
	return &Table{profiles: doc.Sites}, nil
}

func (p *Profile) validate() error {
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: missing name", ErrBadProfile)
	case len(p.Hosts) == 0:
		return fmt.Errorf("%w: %s: no hosts", ErrBadProfile, p.Name)
	case len(p.PathMarkers) == 0:
		return fmt.Errorf("%w: %s: no path markers", ErrBadProfile, p.Name)
	case len(p.Selectors.Title) == 0:
		return fmt.Errorf("%w: %s: no title selectors", ErrBadProfile, p.Name)
	case p.HomeLanguage == "" || p.HomeLanguageCode == "":
		return fmt.Errorf("%w: %s: missing home language", ErrBadProfile, p.Name)
	}
	return nil
}

// Names lists the loaded site names in table order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.profiles))
	for _, p := range t.profiles {
		names = append(names, p.Name)
	}
	return names
}

// ByName returns the profile for a site name.
func (t *Table) ByName(name string) (*Profile, error) {
	for _, p := range t.profiles {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSite, name)
}
