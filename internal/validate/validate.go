// Package validate checks required-field completeness. Validation derives
// a result and never mutates the record; whether to act on an incomplete
// record is the caller's policy.
package validate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/user/bookscraper-service/internal/domain"
)

// DefaultRequired is the required-field set used when none is configured.
var DefaultRequired = []domain.Field{domain.FieldTitle, domain.FieldAuthor}

// checkableFields are the raw display fields a required set may name.
var checkableFields = map[domain.Field]func(*domain.BookRecord) string{
	domain.FieldTitle:           func(r *domain.BookRecord) string { return r.Title },
	domain.FieldAuthor:          func(r *domain.BookRecord) string { return r.Author },
	domain.FieldSeries:          func(r *domain.BookRecord) string { return r.Series },
	domain.FieldDescription:     func(r *domain.BookRecord) string { return r.Description },
	domain.FieldFormat:          func(r *domain.BookRecord) string { return r.Format },
	domain.FieldPrice:           func(r *domain.BookRecord) string { return r.Price },
	domain.FieldISBN:            func(r *domain.BookRecord) string { return r.ISBN },
	domain.FieldEAN:             func(r *domain.BookRecord) string { return r.EAN },
	domain.FieldPublisher:       func(r *domain.BookRecord) string { return r.Publisher },
	domain.FieldPublicationDate: func(r *domain.BookRecord) string { return r.PublicationDate },
	domain.FieldLanguage:        func(r *domain.BookRecord) string { return r.Language },
	domain.FieldPageCount:       func(r *domain.BookRecord) string { return r.PageCount },
	domain.FieldCoverURL:        func(r *domain.BookRecord) string { return r.CoverURL },
}

// Validator checks records against a configurable required-field set.
type Validator struct {
	required []domain.Field
}

// New builds a validator. An empty set falls back to DefaultRequired.
func New(required []domain.Field) *Validator {
	if len(required) == 0 {
		required = DefaultRequired
	}
	return &Validator{required: slices.Clone(required)}
}

// Validate reports which required fields are empty after trimming.
func (v *Validator) Validate(r *domain.BookRecord) domain.ValidationResult {
	var missing []string
	for _, f := range v.required {
		value, ok := checkableFields[f]
		if !ok {
			continue
		}
		if strings.TrimSpace(value(r)) == "" {
			missing = append(missing, string(f))
		}
	}
	return domain.ValidationResult{IsValid: len(missing) == 0, MissingFields: missing}
}

// ParseFields turns a comma-separated field list (the configuration
// format) into field names, rejecting unknown ones.
func ParseFields(csv string) ([]domain.Field, error) {
	var fields []domain.Field
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f := domain.Field(part)
		if _, ok := checkableFields[f]; !ok {
			return nil, fmt.Errorf("unknown required field %q", part)
		}
		fields = append(fields, f)
	}
	return fields, nil
}
