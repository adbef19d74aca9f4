package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/bookscraper-service/internal/api"
	"github.com/user/bookscraper-service/internal/browser"
	"github.com/user/bookscraper-service/internal/catalog"
	"github.com/user/bookscraper-service/internal/config"
	"github.com/user/bookscraper-service/internal/domain"
	"github.com/user/bookscraper-service/internal/monitoring"
	"github.com/user/bookscraper-service/internal/scrape"
	"github.com/user/bookscraper-service/internal/sites"
	"github.com/user/bookscraper-service/internal/validate"
	"github.com/user/bookscraper-service/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scrape HTTP service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	required, err := validate.ParseFields(cfg.RequiredFields)
	if err != nil {
		return fmt.Errorf("invalid REQUIRED_FIELDS: %w", err)
	}
	validator := validate.New(required)

	table, err := sites.Load()
	if err != nil {
		return fmt.Errorf("load site profiles: %w", err)
	}

	metrics := monitoring.NewMetrics()

	// Launch Chrome now so a broken install fails the start, not the
	// first request.
	br := browser.New(browser.Options{
		Headless:   cfg.Headless,
		NavTimeout: cfg.NavTimeout(),
		RenderWait: cfg.RenderWait(),
	}, log)
	defer br.Close()

	warmCtx, cancelWarm := context.WithTimeout(context.Background(), 30*time.Second)
	err = br.Warmup(warmCtx)
	cancelWarm()
	if err != nil {
		if errors.Is(err, domain.ErrRendererUnavailable) {
			log.Fatal("headless browser unavailable", zap.Error(err))
		}
		log.Warn("browser warmup did not finish", zap.Error(err))
	}

	var sinks []catalog.Sink
	if cfg.PostgresURL != "" {
		store, err := catalog.NewStore(context.Background(), cfg.PostgresURL)
		if err != nil {
			log.Fatal("failed to connect to postgres", zap.Error(err))
		}
		sinks = append(sinks, store)
	}
	if cfg.RedisAddr != "" {
		sinks = append(sinks, catalog.NewPublisher(cfg.RedisAddr, cfg.CatalogStreamKey))
	}
	feeder := catalog.NewFeeder(sinks, cfg.CatalogWriteRetries, log, metrics)
	defer feeder.Close()

	scraper := scrape.New(table, br, validator, monitoring.NewScrapeTelemetry(log, metrics), scrape.Config{
		MaxRetries:     cfg.ScrapeMaxRetries,
		RetryBaseDelay: cfg.RetryBaseDelay(),
		Deadline:       cfg.ScrapeDeadline(),
	})

	server := api.NewServer(cfg, scraper, validator, br, feeder, metrics, log)

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal("could not start server", zap.Error(err))
		}
	}()

	log.Info("server started",
		zap.String("port", cfg.ServerPort),
		zap.Strings("sites", table.Names()),
		zap.Int("sinks", len(sinks)),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exiting")
	return nil
}
