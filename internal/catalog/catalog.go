// Package catalog hands finished scrape results to the configured
// downstream sinks. Writes happen after the response is determined:
// a failing sink is logged and counted, never surfaced to the caller.
package catalog

import (
	"context"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"go.uber.org/zap"

	"github.com/user/bookscraper-service/internal/domain"
	"github.com/user/bookscraper-service/internal/monitoring"
)

// feedTimeout bounds the write fan-out for one entry, retries included.
const feedTimeout = 15 * time.Second

// Entry is one catalog delivery. The scrape ID correlates sink rows and
// log lines with the originating request.
type Entry struct {
	ScrapeID  string             `json:"scrapeId"`
	Site      string             `json:"site"`
	URL       string             `json:"url"`
	Outcome   string             `json:"outcome"`
	Record    *domain.BookRecord `json:"record"`
	FetchedAt time.Time          `json:"fetchedAt"`
}

// Sink is one catalog backend.
type Sink interface {
	Name() string
	Write(ctx context.Context, e Entry) error
	Ping(ctx context.Context) error
	Close() error
}

// Feeder fans entries out to every sink through a shared retry policy.
type Feeder struct {
	sinks []Sink
	exec  failsafe.Executor[any]
	log   *zap.Logger
	met   *monitoring.Metrics
}

// NewFeeder builds the fan-out. retries is the number of re-attempts
// per sink write on top of the first try.
func NewFeeder(sinks []Sink, retries int, log *zap.Logger, met *monitoring.Metrics) *Feeder {
	if retries < 0 {
		retries = 0
	}
	retry := retrypolicy.NewBuilder[any]().
		WithBackoff(200*time.Millisecond, 2*time.Second).
		WithJitterFactor(0.1).
		WithMaxRetries(retries).
		Build()
	return &Feeder{
		sinks: sinks,
		exec:  failsafe.With(retry),
		log:   log,
		met:   met,
	}
}

// Feed writes the entry to every sink. It detaches from the request's
// cancellation so an already-answered scrape still reaches the catalog.
func (f *Feeder) Feed(ctx context.Context, e Entry) {
	if len(f.sinks) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), feedTimeout)
	defer cancel()

	for _, sink := range f.sinks {
		_, err := f.exec.WithContext(ctx).Get(func() (any, error) {
			return nil, sink.Write(ctx, e)
		})
		if err != nil {
			f.met.IncCatalogWrite(sink.Name(), "error")
			f.log.Error("catalog write failed",
				zap.String("sink", sink.Name()),
				zap.String("scrape_id", e.ScrapeID),
				zap.String("url", e.URL),
				zap.Error(err),
			)
			continue
		}
		f.met.IncCatalogWrite(sink.Name(), "ok")
		f.log.Debug("catalog write done",
			zap.String("sink", sink.Name()),
			zap.String("scrape_id", e.ScrapeID),
		)
	}
}

// PingAll probes every sink, keyed by sink name.
func (f *Feeder) PingAll(ctx context.Context) map[string]error {
	out := make(map[string]error, len(f.sinks))
	for _, sink := range f.sinks {
		out[sink.Name()] = sink.Ping(ctx)
	}
	return out
}

// Close releases every sink.
func (f *Feeder) Close() {
	for _, sink := range f.sinks {
		if err := sink.Close(); err != nil {
			f.log.Warn("catalog sink close failed",
				zap.String("sink", sink.Name()),
				zap.Error(err),
			)
		}
	}
}
