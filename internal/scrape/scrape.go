// Package scrape owns the attempt loop around the extraction pipeline:
// linear backoff between attempts, retention of partial records, and the
// URL-derived degraded record as the last resort. A structurally valid
// URL always yields some record; only ErrInvalidURL and a fatal renderer
// configuration failure propagate to the caller.
package scrape

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/user/bookscraper-service/internal/domain"
	"github.com/user/bookscraper-service/internal/extract"
	"github.com/user/bookscraper-service/internal/normalize"
	"github.com/user/bookscraper-service/internal/reconcile"
	"github.com/user/bookscraper-service/internal/repair"
	"github.com/user/bookscraper-service/internal/sites"
	"github.com/user/bookscraper-service/internal/validate"
)

// degradedDescription marks records synthesized without any page data.
const degradedDescription = "Die Produktdaten konnten nicht automatisch von der Seite geladen werden."

// Renderer provides exclusive browser sessions, one per attempt.
type Renderer interface {
	NewSession(ctx context.Context) (Session, error)
}

// Session is one leased browser tab. Close must run on every exit path
// of an attempt; sessions are never reused across attempts or requests.
type Session interface {
	Render(ctx context.Context, profile *sites.Profile, url string) (*domain.RenderedPage, error)
	Close() error
}

// Outcome classifies the final result of one scrape.
type Outcome string

const (
	// OutcomeSuccess: an attempt produced a record passing validation.
	OutcomeSuccess Outcome = "success"
	// OutcomePartial: retries exhausted, the most recent partial record
	// was used.
	OutcomePartial Outcome = "partial"
	// OutcomeDegraded: nothing usable was extracted, the record was
	// synthesized from the URL alone.
	OutcomeDegraded Outcome = "degraded"
)

// Config are the controller knobs.
type Config struct {
	// MaxRetries is the total number of attempts.
	MaxRetries int
	// RetryBaseDelay scales linearly with the attempt index: the wait
	// after attempt n is RetryBaseDelay × n.
	RetryBaseDelay time.Duration
	// Deadline bounds one scrape across all attempts. Zero disables it.
	Deadline time.Duration
}

// Result is the controller's answer for one URL.
type Result struct {
	ID       string
	Site     string
	URL      string
	Record   *domain.BookRecord
	Outcome  Outcome
	Attempts int
}

// Scraper drives the full pipeline for single product URLs. Concurrent
// calls are independent: no shared session, no shared record state.
type Scraper struct {
	table     *sites.Table
	renderer  Renderer
	validator *validate.Validator
	tel       Telemetry
	cfg       Config
}

// New wires a controller. A nil telemetry gets the no-op sink, a nil
// validator the default required set.
func New(table *sites.Table, renderer Renderer, validator *validate.Validator, tel Telemetry, cfg Config) *Scraper {
	if validator == nil {
		validator = validate.New(nil)
	}
	if tel == nil {
		tel = NopTelemetry()
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	return &Scraper{table: table, renderer: renderer, validator: validator, tel: tel, cfg: cfg}
}

// Scrape runs the attempt state machine for one URL.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (*Result, error) {
	match, err := s.table.Classify(rawURL)
	if err != nil {
		return nil, err
	}

	res := &Result{
		ID:   uuid.NewString(),
		Site: match.Profile.Name,
		URL:  match.CanonicalURL,
	}

	if s.cfg.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Deadline)
		defer cancel()
	}

	var attempts []domain.RetryAttempt
	for n := 1; n <= s.cfg.MaxRetries; n++ {
		res.Attempts = n
		s.tel.AttemptStarted(res.Site, n)

		rec, err := s.attempt(ctx, match)
		switch {
		case err != nil:
			attempts = append(attempts, domain.RetryAttempt{Index: n, Outcome: domain.AttemptFailed, Err: err})
			s.tel.AttemptFinished(res.Site, n, domain.AttemptFailed, err)
			if errors.Is(err, domain.ErrRendererUnavailable) {
				return nil, err
			}
		default:
			vr := s.validator.Validate(rec)
			if vr.IsValid {
				s.tel.AttemptFinished(res.Site, n, domain.AttemptSuccess, nil)
				res.Record = rec
				res.Outcome = OutcomeSuccess
				return res, nil
			}
			attempts = append(attempts, domain.RetryAttempt{Index: n, Outcome: domain.AttemptPartial, Record: rec})
			s.tel.AttemptFinished(res.Site, n, domain.AttemptPartial, nil)
		}

		if ctx.Err() != nil {
			break
		}
		if n < s.cfg.MaxRetries {
			if !sleep(ctx, s.cfg.RetryBaseDelay*time.Duration(n)) {
				break
			}
		}
	}

	if partial := latestPartial(attempts); partial != nil {
		rec := partial.Clone()
		rec.ValidationWarning = warningFor(s.validator.Validate(rec).MissingFields)
		res.Record = rec
		res.Outcome = OutcomePartial
		return res, nil
	}

	rec := degradedRecord(match)
	if vr := s.validator.Validate(rec); !vr.IsValid {
		rec.ValidationWarning = warningFor(vr.MissingFields)
	}
	s.tel.RecordDegraded(res.Site, match.CanonicalURL)
	res.Record = rec
	res.Outcome = OutcomeDegraded
	return res, nil
}

// attempt runs one render→extract→reconcile→repair→normalize pass. The
// session is released on every exit path.
func (s *Scraper) attempt(ctx context.Context, m sites.Match) (*domain.BookRecord, error) {
	sess, err := s.renderer.NewSession(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	page, err := sess.Render(ctx, m.Profile, m.CanonicalURL)
	if err != nil {
		return nil, err
	}

	ex := extract.FromPage(page, m.Profile, m.CanonicalURL)
	rec := reconcile.Merge(ex)
	rec = repair.Apply(rec, m.Profile)
	rec = normalize.Apply(rec)
	return rec, nil
}

// latestPartial picks the most recent attempt that produced a record.
func latestPartial(attempts []domain.RetryAttempt) *domain.BookRecord {
	for i := len(attempts) - 1; i >= 0; i-- {
		if attempts[i].Outcome == domain.AttemptPartial && attempts[i].Record != nil {
			return attempts[i].Record
		}
	}
	return nil
}

// degradedRecord synthesizes a minimal record purely from the URL: the
// final path segment becomes the title, everything else stays empty
// apart from the placeholder cover and the sentinel description.
func degradedRecord(m sites.Match) *domain.BookRecord {
	r := domain.NewBookRecord()
	r.Title = titleFromURL(m.CanonicalURL)
	r.CoverURL = repair.PlaceholderCover
	r.Description = degradedDescription
	return r
}

func titleFromURL(rawURL string) string {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		path = u.Path
	}
	path = strings.TrimRight(path, "/")
	seg := path[strings.LastIndex(path, "/")+1:]
	seg = strings.TrimSuffix(seg, ".html")
	for _, sep := range []string{"-", "_", "+", "."} {
		seg = strings.ReplaceAll(seg, sep, " ")
	}
	seg = strings.Join(strings.Fields(seg), " ")
	if seg == "" {
		return ""
	}
	return cases.Title(language.German).String(seg)
}

func warningFor(missing []string) string {
	if len(missing) == 0 {
		return ""
	}
	return "missing required fields: " + strings.Join(missing, ", ")
}

// sleep waits out the backoff delay, honoring cancellation. Returns
// false when the context died first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
