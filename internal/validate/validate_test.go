package validate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/user/bookscraper-service/internal/domain"
)

func TestDefaultRequiredSet(t *testing.T) {
	v := New(nil)

	r := domain.NewBookRecord()
	r.Title = "Die Mitternachtsbibliothek"
	r.Author = "Matt Haig"
	res := v.Validate(r)
	require.True(t, res.IsValid)
	require.Empty(t, res.MissingFields)

	r.Author = "   "
	res = v.Validate(r)
	require.False(t, res.IsValid)
	require.Equal(t, []string{"author"}, res.MissingFields)

	empty := domain.NewBookRecord()
	res = v.Validate(empty)
	require.Equal(t, []string{"title", "author"}, res.MissingFields)
}

func TestConfigurableRequiredSet(t *testing.T) {
	v := New([]domain.Field{domain.FieldTitle, domain.FieldAuthor, domain.FieldDescription})

	r := domain.NewBookRecord()
	r.Title = "Titel"
	r.Author = "Autorin"
	res := v.Validate(r)
	require.False(t, res.IsValid)
	require.Equal(t, []string{"description"}, res.MissingFields)

	r.Description = "Eine Beschreibung."
	require.True(t, v.Validate(r).IsValid)
}

func TestValidatePurity(t *testing.T) {
	v := New(nil)
	r := domain.NewBookRecord()
	r.Title = "Nur Titel"

	before := r.Clone()
	first := v.Validate(r)
	second := v.Validate(r)

	require.Equal(t, first, second)
	require.Equal(t, before, r)
}

func TestParseFields(t *testing.T) {
	fields, err := ParseFields("title, author,description")
	require.NoError(t, err)
	require.Equal(t, []domain.Field{domain.FieldTitle, domain.FieldAuthor, domain.FieldDescription}, fields)

	fields, err = ParseFields("")
	require.NoError(t, err)
	require.Empty(t, fields)

	_, err = ParseFields("title,priceValue")
	require.Error(t, err)

	_, err = ParseFields("titel")
	require.Error(t, err)
}
