package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the service. All collectors
// are registered on a private registry so the struct can be constructed
// more than once within a single process.
type Metrics struct {
	registry *prometheus.Registry

	ScrapesTotal       *prometheus.CounterVec
	ScrapeDuration     *prometheus.HistogramVec
	AttemptsTotal      *prometheus.CounterVec
	FieldMissingTotal  *prometheus.CounterVec
	CatalogWritesTotal *prometheus.CounterVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all service collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		ScrapesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookscraper_scrapes_total",
				Help: "Total number of scrape requests by final outcome.",
			},
			[]string{"site", "outcome"},
		),
		ScrapeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bookscraper_scrape_duration_seconds",
				Help:    "End-to-end duration of scrape requests.",
				Buckets: []float64{1, 5, 10, 15, 30, 60, 120},
			},
			[]string{"site"},
		),
		AttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookscraper_attempts_total",
				Help: "Total number of render attempts by per-attempt result.",
			},
			[]string{"site", "result"},
		),
		FieldMissingTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookscraper_field_missing_total",
				Help: "Scrapes whose final record lacked a given field.",
			},
			[]string{"field"},
		),
		CatalogWritesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookscraper_catalog_writes_total",
				Help: "Catalog sink write results.",
			},
			[]string{"sink", "status"},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
	}
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveScrape records the final outcome and duration of one scrape.
func (m *Metrics) ObserveScrape(site, outcome string, duration time.Duration) {
	m.ScrapesTotal.WithLabelValues(site, outcome).Inc()
	m.ScrapeDuration.WithLabelValues(site).Observe(duration.Seconds())
}

// IncAttempt records the result of a single render attempt.
func (m *Metrics) IncAttempt(site, result string) {
	m.AttemptsTotal.WithLabelValues(site, result).Inc()
}

// IncFieldMissing records that a served record lacked the given field.
func (m *Metrics) IncFieldMissing(field string) {
	m.FieldMissingTotal.WithLabelValues(field).Inc()
}

// IncCatalogWrite records the status of one catalog sink write.
func (m *Metrics) IncCatalogWrite(sink, status string) {
	m.CatalogWritesTotal.WithLabelValues(sink, status).Inc()
}

// ObserveHTTP records one served HTTP request.
func (m *Metrics) ObserveHTTP(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
