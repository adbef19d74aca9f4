package scrape

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/user/bookscraper-service/internal/domain"
	"github.com/user/bookscraper-service/internal/repair"
	"github.com/user/bookscraper-service/internal/sites"
)

const testURL = "https://www.thalia.de/shop/home/artikeldetails/A123"

type step struct {
	sessionErr error
	renderErr  error
	page       *domain.RenderedPage
}

// scriptedRenderer plays one step per attempt; the last step repeats.
type scriptedRenderer struct {
	mu     sync.Mutex
	script []step
	calls  int
	closed int
}

func (r *scriptedRenderer) NewSession(context.Context) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.calls
	if idx >= len(r.script) {
		idx = len(r.script) - 1
	}
	r.calls++
	st := r.script[idx]
	if st.sessionErr != nil {
		return nil, st.sessionErr
	}
	return &scriptedSession{renderer: r, st: st}, nil
}

type scriptedSession struct {
	renderer *scriptedRenderer
	st       step
}

func (s *scriptedSession) Render(context.Context, *sites.Profile, string) (*domain.RenderedPage, error) {
	if s.st.renderErr != nil {
		return nil, s.st.renderErr
	}
	return s.st.page, nil
}

func (s *scriptedSession) Close() error {
	s.renderer.mu.Lock()
	defer s.renderer.mu.Unlock()
	s.renderer.closed++
	return nil
}

type recordingTelemetry struct {
	mu       sync.Mutex
	started  []int
	finished []domain.AttemptOutcome
	degraded int
}

func (r *recordingTelemetry) AttemptStarted(_ string, attempt int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, attempt)
}

func (r *recordingTelemetry) AttemptFinished(_ string, _ int, outcome domain.AttemptOutcome, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, outcome)
}

func (r *recordingTelemetry) RecordDegraded(string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.degraded++
}

func goodPage() *domain.RenderedPage {
	return &domain.RenderedPage{StructuredData: []map[string]any{{
		"@type":  "Book",
		"name":   "Die Mitternachtsbibliothek",
		"author": "Matt Haig",
	}}}
}

func titleOnlyPage() *domain.RenderedPage {
	return &domain.RenderedPage{StructuredData: []map[string]any{{
		"@type": "Book",
		"name":  "Nur Titel",
	}}}
}

func navError() error {
	return fmt.Errorf("net::ERR_CONNECTION_RESET: %w", domain.ErrNavigationError)
}

func newScraper(t *testing.T, r Renderer, cfg Config, tel Telemetry) *Scraper {
	t.Helper()
	table, err := sites.Load()
	require.NoError(t, err)
	return New(table, r, nil, tel, cfg)
}

func TestScrapeSuccessOnFirstAttempt(t *testing.T) {
	renderer := &scriptedRenderer{script: []step{{page: goodPage()}}}
	s := newScraper(t, renderer, Config{MaxRetries: 3, RetryBaseDelay: time.Millisecond}, nil)

	res, err := s.Scrape(context.Background(), testURL)
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, res.Outcome)
	require.Equal(t, 1, res.Attempts)
	require.Equal(t, "thalia", res.Site)
	require.Equal(t, "https://www.thalia.de/shop/home/artikeldetails/A123", res.URL)
	require.NotEmpty(t, res.ID)
	require.Equal(t, "Die Mitternachtsbibliothek", res.Record.Title)
	require.Equal(t, "Matt Haig", res.Record.Author)
	require.Empty(t, res.Record.ValidationWarning)
	require.Equal(t, 1, renderer.calls)
	require.Equal(t, 1, renderer.closed)
}

func TestScrapeRetriesAfterNavigationError(t *testing.T) {
	renderer := &scriptedRenderer{script: []step{
		{renderErr: navError()},
		{page: goodPage()},
	}}
	s := newScraper(t, renderer, Config{MaxRetries: 3, RetryBaseDelay: time.Millisecond}, nil)

	res, err := s.Scrape(context.Background(), testURL)
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, res.Outcome)
	require.Equal(t, 2, res.Attempts)
	require.Equal(t, 2, renderer.calls)
	require.Equal(t, 2, renderer.closed)
}

func TestPartialRecordFromMiddleAttemptIsKept(t *testing.T) {
	renderer := &scriptedRenderer{script: []step{
		{renderErr: navError()},
		{page: titleOnlyPage()},
		{renderErr: navError()},
	}}
	s := newScraper(t, renderer, Config{MaxRetries: 3, RetryBaseDelay: time.Millisecond}, nil)

	res, err := s.Scrape(context.Background(), testURL)
	require.NoError(t, err)
	require.Equal(t, OutcomePartial, res.Outcome)
	require.Equal(t, 3, res.Attempts)

	// The record is attempt 2's pipeline output, warning attached.
	require.Equal(t, "Nur Titel", res.Record.Title)
	require.Empty(t, res.Record.Author)
	require.Equal(t, repair.PlaceholderCover, res.Record.CoverURL)
	require.Equal(t, "Deutsch", res.Record.Language)
	require.Equal(t, "missing required fields: author", res.Record.ValidationWarning)
}

func TestDegradedRecordSynthesizedFromURL(t *testing.T) {
	renderer := &scriptedRenderer{script: []step{{renderErr: navError()}}}
	s := newScraper(t, renderer, Config{MaxRetries: 3, RetryBaseDelay: time.Millisecond}, nil)

	res, err := s.Scrape(context.Background(), "https://www.thalia.de/artikeldetails/die-mitternachtsbibliothek")
	require.NoError(t, err)
	require.Equal(t, OutcomeDegraded, res.Outcome)
	require.Equal(t, "Die Mitternachtsbibliothek", res.Record.Title)
	require.Equal(t, repair.PlaceholderCover, res.Record.CoverURL)
	require.Equal(t, degradedDescription, res.Record.Description)
	require.Empty(t, res.Record.Author)
	require.NotNil(t, res.Record.Categories)
	require.Contains(t, res.Record.ValidationWarning, "author")
}

func TestInvalidURLNeverReachesRenderer(t *testing.T) {
	renderer := &scriptedRenderer{script: []step{{page: goodPage()}}}
	s := newScraper(t, renderer, Config{MaxRetries: 3, RetryBaseDelay: time.Millisecond}, nil)

	for _, raw := range []string{
		"https://www.amazon.de/dp/B08XYZ",
		"https://www.thalia.de/shop/home/suche?sq=krimi",
		"not a url at all",
	} {
		_, err := s.Scrape(context.Background(), raw)
		require.ErrorIs(t, err, domain.ErrInvalidURL)
	}
	require.Equal(t, 0, renderer.calls)
}

func TestRendererUnavailableIsFatal(t *testing.T) {
	renderer := &scriptedRenderer{script: []step{
		{sessionErr: fmt.Errorf("chrome launch: %w", domain.ErrRendererUnavailable)},
	}}
	s := newScraper(t, renderer, Config{MaxRetries: 3, RetryBaseDelay: time.Millisecond}, nil)

	res, err := s.Scrape(context.Background(), testURL)
	require.Nil(t, res)
	require.ErrorIs(t, err, domain.ErrRendererUnavailable)
	require.Equal(t, 1, renderer.calls)
}

func TestLinearBackoffBetweenAttempts(t *testing.T) {
	renderer := &scriptedRenderer{script: []step{{renderErr: navError()}}}
	base := 20 * time.Millisecond
	s := newScraper(t, renderer, Config{MaxRetries: 3, RetryBaseDelay: base}, nil)

	start := time.Now()
	res, err := s.Scrape(context.Background(), testURL)
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.Equal(t, OutcomeDegraded, res.Outcome)
	// Waits are base×1 and base×2.
	require.GreaterOrEqual(t, elapsed, 3*base)
	require.Less(t, elapsed, 5*time.Second)
}

func TestDeadlineStopsRetrying(t *testing.T) {
	renderer := &scriptedRenderer{script: []step{{renderErr: navError()}}}
	s := newScraper(t, renderer, Config{
		MaxRetries:     5,
		RetryBaseDelay: 300 * time.Millisecond,
		Deadline:       30 * time.Millisecond,
	}, nil)

	start := time.Now()
	res, err := s.Scrape(context.Background(), testURL)
	require.NoError(t, err)
	require.Equal(t, OutcomeDegraded, res.Outcome)
	require.Equal(t, 1, res.Attempts)
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestTelemetrySequence(t *testing.T) {
	tel := &recordingTelemetry{}
	renderer := &scriptedRenderer{script: []step{
		{renderErr: navError()},
		{page: titleOnlyPage()},
		{renderErr: navError()},
	}}
	s := newScraper(t, renderer, Config{MaxRetries: 3, RetryBaseDelay: time.Millisecond}, tel)

	_, err := s.Scrape(context.Background(), testURL)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, tel.started)
	require.Equal(t, []domain.AttemptOutcome{domain.AttemptFailed, domain.AttemptPartial, domain.AttemptFailed}, tel.finished)
	require.Equal(t, 0, tel.degraded)
}

func TestTelemetryDegradedEvent(t *testing.T) {
	tel := &recordingTelemetry{}
	renderer := &scriptedRenderer{script: []step{{renderErr: navError()}}}
	s := newScraper(t, renderer, Config{MaxRetries: 2, RetryBaseDelay: time.Millisecond}, tel)

	_, err := s.Scrape(context.Background(), testURL)
	require.NoError(t, err)
	require.Equal(t, 1, tel.degraded)
}

func TestScrapeIDsAreUnique(t *testing.T) {
	renderer := &scriptedRenderer{script: []step{{page: goodPage()}}}
	s := newScraper(t, renderer, Config{MaxRetries: 1}, nil)

	a, err := s.Scrape(context.Background(), testURL)
	require.NoError(t, err)
	b, err := s.Scrape(context.Background(), testURL)
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID)
}
