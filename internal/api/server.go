// Package api is the HTTP layer: request decoding, status mapping, and
// the wiring of scrape results into the catalog feeder. All product
// logic lives below it.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/user/bookscraper-service/internal/catalog"
	"github.com/user/bookscraper-service/internal/config"
	"github.com/user/bookscraper-service/internal/monitoring"
	"github.com/user/bookscraper-service/internal/scrape"
	"github.com/user/bookscraper-service/internal/validate"
)

// RendererStatus reports whether the headless browser is ready to serve
// sessions.
type RendererStatus interface {
	Ready() bool
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	config     *config.Config
	router     http.Handler
	httpServer *http.Server
	scraper    *scrape.Scraper
	validator  *validate.Validator
	renderer   RendererStatus
	feeder     *catalog.Feeder
	metrics    *monitoring.Metrics
	logger     *zap.Logger
}

func NewServer(
	cfg *config.Config,
	scraper *scrape.Scraper,
	validator *validate.Validator,
	renderer RendererStatus,
	feeder *catalog.Feeder,
	m *monitoring.Metrics,
	l *zap.Logger,
) *Server {
	s := &Server{
		config:    cfg,
		scraper:   scraper,
		validator: validator,
		renderer:  renderer,
		feeder:    feeder,
		metrics:   m,
		logger:    l,
	}
	s.router = s.setupRouter()
	return s
}

// Handler exposes the assembled router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%s", s.config.ServerPort),
		Handler: s.router,
		// The write timeout must outlive a full scrape with retries.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: s.requestTimeout() + 10*time.Second,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// requestTimeout is the per-request ceiling enforced by the router.
// Hitting it answers 504; the scrape deadline below it normally keeps
// requests from ever getting that far.
func (s *Server) requestTimeout() time.Duration {
	if d := s.config.ScrapeDeadline(); d > 0 {
		return d + 15*time.Second
	}
	return 2 * time.Minute
}
