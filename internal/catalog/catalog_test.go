package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/bookscraper-service/internal/domain"
	"github.com/user/bookscraper-service/internal/monitoring"
)

type fakeSink struct {
	name     string
	mu       sync.Mutex
	writes   []Entry
	failures int
	pingErr  error
	closed   bool
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Write(ctx context.Context, e Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return errors.New("sink unavailable")
	}
	f.writes = append(f.writes, e)
	return nil
}

func (f *fakeSink) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSink) written() []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Entry(nil), f.writes...)
}

func testEntry() Entry {
	rec := domain.NewBookRecord()
	rec.Title = "Die Mitternachtsbibliothek"
	rec.Author = "Matt Haig"
	return Entry{
		ScrapeID:  "6f1a9f6e-0000-0000-0000-000000000000",
		Site:      "thalia",
		URL:       "https://www.thalia.de/shop/home/artikeldetails/A123",
		Outcome:   "success",
		Record:    rec,
		FetchedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestFeedFansOutToAllSinks(t *testing.T) {
	a := &fakeSink{name: "postgres"}
	b := &fakeSink{name: "redis"}
	met := monitoring.NewMetrics()
	f := NewFeeder([]Sink{a, b}, 0, zap.NewNop(), met)

	f.Feed(context.Background(), testEntry())

	require.Len(t, a.written(), 1)
	require.Len(t, b.written(), 1)
	require.Equal(t, "Die Mitternachtsbibliothek", a.written()[0].Record.Title)
	require.Equal(t, 1.0, testutil.ToFloat64(met.CatalogWritesTotal.WithLabelValues("postgres", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(met.CatalogWritesTotal.WithLabelValues("redis", "ok")))
}

func TestFeedRetriesTransientFailures(t *testing.T) {
	s := &fakeSink{name: "postgres", failures: 2}
	met := monitoring.NewMetrics()
	f := NewFeeder([]Sink{s}, 2, zap.NewNop(), met)

	f.Feed(context.Background(), testEntry())

	require.Len(t, s.written(), 1)
	require.Equal(t, 1.0, testutil.ToFloat64(met.CatalogWritesTotal.WithLabelValues("postgres", "ok")))
}

func TestFeedIsolatesFailingSink(t *testing.T) {
	bad := &fakeSink{name: "postgres", failures: 100}
	good := &fakeSink{name: "redis"}
	met := monitoring.NewMetrics()
	f := NewFeeder([]Sink{bad, good}, 1, zap.NewNop(), met)

	f.Feed(context.Background(), testEntry())

	require.Empty(t, bad.written())
	require.Len(t, good.written(), 1)
	require.Equal(t, 1.0, testutil.ToFloat64(met.CatalogWritesTotal.WithLabelValues("postgres", "error")))
	require.Equal(t, 1.0, testutil.ToFloat64(met.CatalogWritesTotal.WithLabelValues("redis", "ok")))
}

func TestFeedSurvivesCanceledRequestContext(t *testing.T) {
	// The scrape response is already on the wire when feeding starts:
	// a dead request context must not stop the catalog write.
	s := &fakeSink{name: "redis"}
	f := NewFeeder([]Sink{s}, 0, zap.NewNop(), monitoring.NewMetrics())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.Feed(ctx, testEntry())

	require.Len(t, s.written(), 1)
}

func TestPingAllAndClose(t *testing.T) {
	healthy := &fakeSink{name: "postgres"}
	down := &fakeSink{name: "redis", pingErr: errors.New("connection refused")}
	f := NewFeeder([]Sink{healthy, down}, 0, zap.NewNop(), monitoring.NewMetrics())

	status := f.PingAll(context.Background())
	require.NoError(t, status["postgres"])
	require.Error(t, status["redis"])

	f.Close()
	require.True(t, healthy.closed)
	require.True(t, down.closed)
}
