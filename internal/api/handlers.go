package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/user/bookscraper-service/internal/catalog"
	"github.com/user/bookscraper-service/internal/domain"
)

type scrapeRequest struct {
	URL string `json:"url"`
}

type scrapeResponse struct {
	Success  bool               `json:"success"`
	BookData *domain.BookRecord `json:"bookData,omitempty"`
	Error    string             `json:"error,omitempty"`
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		s.respondWithError(w, http.StatusBadRequest, "url is required")
		return
	}

	start := time.Now()
	res, err := s.scraper.Scrape(r.Context(), req.URL)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidURL):
			s.metrics.ObserveScrape("none", "invalid_url", time.Since(start))
			s.respondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrRendererUnavailable):
			s.logger.Error("renderer unavailable", zap.Error(err))
			s.metrics.ObserveScrape("none", "renderer_unavailable", time.Since(start))
			s.respondWithError(w, http.StatusInternalServerError, "renderer unavailable")
		default:
			s.logger.Error("scrape failed", zap.String("url", req.URL), zap.Error(err))
			s.metrics.ObserveScrape("none", "error", time.Since(start))
			s.respondWithError(w, http.StatusInternalServerError, "scrape failed")
		}
		return
	}

	s.metrics.ObserveScrape(res.Site, string(res.Outcome), time.Since(start))
	for _, field := range s.validator.Validate(res.Record).MissingFields {
		s.metrics.IncFieldMissing(field)
	}

	s.logger.Info("scrape finished",
		zap.String("scrape_id", res.ID),
		zap.String("site", res.Site),
		zap.String("url", res.URL),
		zap.String("outcome", string(res.Outcome)),
		zap.Int("attempts", res.Attempts),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	// Catalog feeding never delays or alters the response.
	go s.feeder.Feed(r.Context(), catalog.Entry{
		ScrapeID:  res.ID,
		Site:      res.Site,
		URL:       res.URL,
		Outcome:   string(res.Outcome),
		Record:    res.Record,
		FetchedAt: time.Now().UTC(),
	})

	s.respondWithJSON(w, http.StatusOK, scrapeResponse{Success: true, BookData: res.Record})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	health := make(map[string]string)
	healthy := true

	if s.renderer.Ready() {
		health["renderer"] = "healthy"
	} else {
		health["renderer"] = "unhealthy"
		healthy = false
	}

	for name, err := range s.feeder.PingAll(ctx) {
		if err != nil {
			health[name] = "unhealthy"
			healthy = false
			s.logger.Error("health check failed", zap.String("sink", name), zap.Error(err))
		} else {
			health[name] = "healthy"
		}
	}

	if !healthy {
		s.respondWithJSON(w, http.StatusServiceUnavailable, health)
		return
	}
	s.respondWithJSON(w, http.StatusOK, health)
}

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, scrapeResponse{Success: false, Error: message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
