package domain

import "slices"

// BookRecord is the canonical output of one scrape. Raw display fields are
// always serialized (empty string when unknown); derived fields exist only
// when the corresponding raw field parsed and are omitted otherwise.
type BookRecord struct {
	Title              string   `json:"title"`
	Subtitle           string   `json:"subtitle"`
	Author             string   `json:"author"`
	Series             string   `json:"series"`
	SeriesNumber       int      `json:"seriesNumber,omitempty"`
	Description        string   `json:"description"`
	Format             string   `json:"format"`
	Price              string   `json:"price"`
	PriceValue         *float64 `json:"priceValue,omitempty"`
	ISBN               string   `json:"isbn"`
	ISBNClean          string   `json:"isbnClean,omitempty"`
	EAN                string   `json:"ean"`
	EANClean           string   `json:"eanClean,omitempty"`
	Publisher          string   `json:"publisher"`
	PublicationDate    string   `json:"publicationDate"`
	PublicationDateISO string   `json:"publicationDateISO,omitempty"`
	Language           string   `json:"language"`
	LanguageCode       string   `json:"languageCode,omitempty"`
	PageCount          string   `json:"pageCount"`
	PageCountValue     *int     `json:"pageCountValue,omitempty"`
	CoverURL           string   `json:"coverUrl"`
	Categories         []string `json:"categories"`
	ValidationWarning  string   `json:"validationWarning,omitempty"`
}

// NewBookRecord returns an empty record whose categories serialize as [].
func NewBookRecord() *BookRecord {
	return &BookRecord{Categories: []string{}}
}

// Clone returns a deep copy. Pipeline stages transform copies so a failure
// mid-stage can never leave a half-mutated record visible to later stages.
func (r *BookRecord) Clone() *BookRecord {
	c := *r
	c.Categories = slices.Clone(r.Categories)
	if c.Categories == nil {
		c.Categories = []string{}
	}
	if r.PriceValue != nil {
		v := *r.PriceValue
		c.PriceValue = &v
	}
	if r.PageCountValue != nil {
		v := *r.PageCountValue
		c.PageCountValue = &v
	}
	return &c
}

// ValidationResult reports required-field completeness for one record.
// It is derived metadata and is never altered after creation.
type ValidationResult struct {
	IsValid       bool
	MissingFields []string
}
