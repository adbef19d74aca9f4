package monitoring

import (
	"go.uber.org/zap"

	"github.com/user/bookscraper-service/internal/domain"
	"github.com/user/bookscraper-service/internal/scrape"
)

// ScrapeTelemetry forwards controller events to the structured log and
// the attempt counters.
type ScrapeTelemetry struct {
	log     *zap.Logger
	metrics *Metrics
}

// NewScrapeTelemetry wires the scrape controller to logging and metrics.
func NewScrapeTelemetry(log *zap.Logger, metrics *Metrics) *ScrapeTelemetry {
	return &ScrapeTelemetry{log: log, metrics: metrics}
}

var _ scrape.Telemetry = (*ScrapeTelemetry)(nil)

func (t *ScrapeTelemetry) AttemptStarted(site string, attempt int) {
	t.log.Debug("render attempt started",
		zap.String("site", site),
		zap.Int("attempt", attempt),
	)
}

func (t *ScrapeTelemetry) AttemptFinished(site string, attempt int, outcome domain.AttemptOutcome, err error) {
	t.metrics.IncAttempt(site, string(outcome))
	fields := []zap.Field{
		zap.String("site", site),
		zap.Int("attempt", attempt),
		zap.String("result", string(outcome)),
	}
	if err != nil {
		t.log.Warn("render attempt failed", append(fields, zap.Error(err))...)
		return
	}
	t.log.Info("render attempt finished", fields...)
}

func (t *ScrapeTelemetry) RecordDegraded(site, url string) {
	t.log.Warn("serving degraded record built from url",
		zap.String("site", site),
		zap.String("url", url),
	)
}
