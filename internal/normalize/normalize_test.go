package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/user/bookscraper-service/internal/domain"
)

func TestPriceNormalization(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantRaw   string
		wantValue *float64
	}{
		{"with euro sign", "12,99 €", "12,99 €", ptr(12.99)},
		{"currency appended when missing", "12,99", "12,99 €", ptr(12.99)},
		{"decimal dot", "9.95 €", "9.95 €", ptr(9.95)},
		{"foreign currency untouched", "8.49 CHF", "8.49 CHF", ptr(8.49)},
		{"no decimal group", "gratis", "gratis €", nil},
		{"empty untouched", "", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := domain.NewBookRecord()
			r.Price = tt.raw
			out := Apply(r)
			require.Equal(t, tt.wantRaw, out.Price)
			if tt.wantValue == nil {
				require.Nil(t, out.PriceValue)
			} else {
				require.NotNil(t, out.PriceValue)
				require.InDelta(t, *tt.wantValue, *out.PriceValue, 0.0001)
			}
		})
	}
}

func TestDateNormalization(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantISO string
	}{
		{"display format", "05.03.2023", "2023-03-05"},
		{"already iso", "2023-03-05", "2023-03-05"},
		{"rfc3339", "2023-03-05T08:30:00Z", "2023-03-05"},
		{"unparseable keeps raw only", "Frühjahr 2023", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := domain.NewBookRecord()
			r.PublicationDate = tt.raw
			out := Apply(r)
			require.Equal(t, tt.raw, out.PublicationDate)
			require.Equal(t, tt.wantISO, out.PublicationDateISO)
		})
	}
}

func TestPageCountNormalization(t *testing.T) {
	r := domain.NewBookRecord()
	r.PageCount = "336 Seiten"
	out := Apply(r)
	require.NotNil(t, out.PageCountValue)
	require.Equal(t, 336, *out.PageCountValue)

	r.PageCount = "Seitenzahl unbekannt"
	out = Apply(r)
	require.Nil(t, out.PageCountValue)
}

func TestIdentifierCleaning(t *testing.T) {
	r := domain.NewBookRecord()
	r.ISBN = "978-3-426-28256-1"
	r.EAN = "EAN: 9783426282561"
	out := Apply(r)

	require.Equal(t, "9783426282561", out.ISBNClean)
	require.Equal(t, "9783426282561", out.EANClean)
	require.Equal(t, "978-3-426-28256-1", out.ISBN)

	r = domain.NewBookRecord()
	r.ISBN = "3-86680-192-X"
	out = Apply(r)
	require.Equal(t, "386680192X", out.ISBNClean)
}

func TestLanguageCodes(t *testing.T) {
	tests := []struct {
		raw      string
		wantCode string
	}{
		{"Deutsch", "de"},
		{"deutsch", "de"},
		{"English", "en"},
		{"Französisch", "fr"},
		{"Spanisch", "es"},
		{"Italienisch", "it"},
		{"Klingonisch", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			r := domain.NewBookRecord()
			r.Language = tt.raw
			out := Apply(r)
			require.Equal(t, tt.raw, out.Language)
			require.Equal(t, tt.wantCode, out.LanguageCode)
		})
	}
}

func TestIdempotence(t *testing.T) {
	records := []*domain.BookRecord{
		fullRecord(),
		domain.NewBookRecord(),
		{Price: "12,99", PublicationDate: "Frühjahr 2023", PageCount: "ca. Seiten", Categories: []string{}},
	}

	for _, r := range records {
		once := Apply(r)
		twice := Apply(once)
		require.Equal(t, once, twice)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	r := domain.NewBookRecord()
	r.Price = "12,99"
	r.PublicationDate = "05.03.2023"

	_ = Apply(r)

	require.Equal(t, "12,99", r.Price)
	require.Nil(t, r.PriceValue)
	require.Empty(t, r.PublicationDateISO)
}

func fullRecord() *domain.BookRecord {
	r := domain.NewBookRecord()
	r.Title = "Die Mitternachtsbibliothek"
	r.Author = "Matt Haig"
	r.Price = "12,99 €"
	r.PublicationDate = "05.03.2023"
	r.PageCount = "336 Seiten"
	r.ISBN = "978-3-426-28256-1"
	r.EAN = "9783426282561"
	r.Language = "Deutsch"
	return r
}

func ptr(f float64) *float64 { return &f }
