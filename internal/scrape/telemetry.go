package scrape

import "github.com/user/bookscraper-service/internal/domain"

// Telemetry receives per-attempt events from the controller. It is
// decoupled from the state machine: control flow never depends on what a
// sink does, and implementations must not block.
type Telemetry interface {
	AttemptStarted(site string, attempt int)
	AttemptFinished(site string, attempt int, outcome domain.AttemptOutcome, err error)
	RecordDegraded(site, url string)
}

type nopTelemetry struct{}

func (nopTelemetry) AttemptStarted(string, int)                                {}
func (nopTelemetry) AttemptFinished(string, int, domain.AttemptOutcome, error) {}
func (nopTelemetry) RecordDegraded(string, string)                             {}

// NopTelemetry returns a sink that discards everything.
func NopTelemetry() Telemetry { return nopTelemetry{} }
