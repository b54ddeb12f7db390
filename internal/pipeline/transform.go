package pipeline

import (
	"log/slog"
	"time"

	"github.com/couchcryptid/fuel-stock-etl/internal/domain"
	"github.com/couchcryptid/fuel-stock-etl/internal/observability"
)

// StockTransformer implements Transformer by running the extraction and
// reconciliation steps of the domain package over one page.
type StockTransformer struct {
	registry  *domain.Registry
	productID int
	location  *time.Location
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewTransformer creates a StockTransformer. Depleted records are tagged with
// productID and their measurement time is rendered in loc.
func NewTransformer(registry *domain.Registry, productID int, loc *time.Location, logger *slog.Logger, metrics *observability.Metrics) *StockTransformer {
	if loc == nil {
		loc = time.UTC
	}
	return &StockTransformer{
		registry:  registry,
		productID: productID,
		location:  loc,
		logger:    logger,
		metrics:   metrics,
	}
}

func (t *StockTransformer) Transform(text string, retrievedAt time.Time) domain.Reconciliation {
	ex := domain.Extract(text)

	t.metrics.FragmentsLocated.Add(float64(ex.Located))
	for _, skipped := range ex.Skipped {
		t.logger.Warn("fragment skipped",
			"offset", skipped.Offset,
			"field", skipped.Field,
			"reason", skipped.Reason,
		)
		t.metrics.FragmentsSkipped.WithLabelValues(skipped.Field).Inc()
	}
	if ex.Located == 0 {
		t.logger.Warn("no stock fragments found in source page", "bytes", len(text))
	}

	result := domain.Reconcile(ex.Matches, t.registry, retrievedAt.In(t.location), t.productID)

	for _, id := range result.Unregistered {
		t.logger.Info("fragment for unregistered station dropped", "station_id", id)
	}
	t.metrics.UnregisteredStations.Add(float64(len(result.Unregistered)))

	return result
}
