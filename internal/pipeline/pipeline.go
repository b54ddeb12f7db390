package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/fuel-stock-etl/internal/domain"
	"github.com/couchcryptid/fuel-stock-etl/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Fetcher retrieves the raw text of the source page.
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// Transformer converts one page into the complete record set for a cycle.
type Transformer interface {
	Transform(text string, retrievedAt time.Time) domain.Reconciliation
}

// Sink stores a complete record set, keyed by station ID.
type Sink interface {
	Upsert(ctx context.Context, records []domain.StationRecord) error
}

// Poll outcomes recorded in metrics.
const (
	outcomeSuccess      = "success"
	outcomeFetchError   = "fetch_error"
	outcomePersistError = "persist_error"
)

// Pipeline orchestrates the fetch-transform-persist cycle on a fixed interval.
type Pipeline struct {
	fetcher      Fetcher
	transformer  Transformer
	sink         Sink
	clock        clockwork.Clock
	logger       *slog.Logger
	metrics      *observability.Metrics
	interval     time.Duration
	cycleTimeout time.Duration
	ready        atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(f Fetcher, t Transformer, s Sink, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics, interval, cycleTimeout time.Duration) *Pipeline {
	return &Pipeline{
		fetcher:      f,
		transformer:  t,
		sink:         s,
		clock:        clock,
		logger:       logger,
		metrics:      metrics,
		interval:     interval,
		cycleTimeout: cycleTimeout,
	}
}

// CheckReadiness returns nil once a cycle has persisted its records, or an
// error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no poll cycle has completed yet")
	}
	return nil
}

// Run executes one cycle immediately and then one per interval until the
// context is cancelled. Cycle failures are logged; the next tick retries.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("poller started", "interval", p.interval)
	p.metrics.PollerRunning.Set(1)
	defer p.metrics.PollerRunning.Set(0)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.runCycle(ctx)

		select {
		case <-ctx.Done():
			p.logger.Info("poller stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}
}

func (p *Pipeline) runCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	cycleCtx, cancel := context.WithTimeout(ctx, p.cycleTimeout)
	defer cancel()

	if _, err := p.RunOnce(cycleCtx); err != nil && ctx.Err() == nil {
		p.logger.Error("poll cycle failed", "error", err)
	}
}

// RunOnce performs a single fetch-transform-persist cycle and returns the
// record set it produced. A retrieval failure yields no records and no
// persistence attempt.
func (p *Pipeline) RunOnce(ctx context.Context) (domain.Reconciliation, error) {
	start := p.clock.Now()
	logger := p.logger.With("cycle_id", uuid.NewString())

	text, err := p.fetcher.Fetch(ctx)
	if err != nil {
		p.metrics.Polls.WithLabelValues(outcomeFetchError).Inc()
		return domain.Reconciliation{}, fmt.Errorf("fetch: %w", err)
	}

	result := p.transformer.Transform(text, start)
	available, depleted := result.Counts()

	if err := p.sink.Upsert(ctx, result.Records); err != nil {
		p.metrics.Polls.WithLabelValues(outcomePersistError).Inc()
		return result, fmt.Errorf("persist %d records: %w", len(result.Records), err)
	}

	p.metrics.Polls.WithLabelValues(outcomeSuccess).Inc()
	p.metrics.RecordsWritten.Add(float64(len(result.Records)))
	p.metrics.StationsAvailable.Set(float64(available))
	p.metrics.StationsDepleted.Set(float64(depleted))
	p.metrics.LastSuccessful.Set(float64(p.clock.Now().Unix()))
	p.metrics.CycleDuration.Observe(p.clock.Since(start).Seconds())
	p.ready.Store(true)

	logger.Info("poll cycle complete",
		"records", len(result.Records),
		"available", available,
		"depleted", depleted,
		"unregistered", len(result.Unregistered),
	)
	return result, nil
}
