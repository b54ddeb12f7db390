package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the poller.
type Metrics struct {
	Polls          *prometheus.CounterVec // labels: outcome={success,fetch_error,persist_error}
	PollerRunning  prometheus.Gauge
	CycleDuration  prometheus.Histogram
	LastSuccessful prometheus.Gauge

	// Extraction metrics.
	FragmentsLocated     prometheus.Counter
	FragmentsSkipped     *prometheus.CounterVec // labels: field
	UnregisteredStations prometheus.Counter

	// Output metrics.
	RecordsWritten    prometheus.Counter
	StationsAvailable prometheus.Gauge
	StationsDepleted  prometheus.Gauge
}

// NewMetrics creates and registers all poller metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.Polls,
		m.PollerRunning,
		m.CycleDuration,
		m.LastSuccessful,
		m.FragmentsLocated,
		m.FragmentsSkipped,
		m.UnregisteredStations,
		m.RecordsWritten,
		m.StationsAvailable,
		m.StationsDepleted,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fuel_stock",
			Name:      "polls_total",
			Help:      "Poll cycles by outcome.",
		}, []string{"outcome"}),
		PollerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fuel_stock",
			Name:      "poller_running",
			Help:      "1 when the poller is active, 0 when shut down.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fuel_stock",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete fetch-extract-persist cycle.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		LastSuccessful: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fuel_stock",
			Name:      "last_successful_cycle_timestamp_seconds",
			Help:      "Unix time of the last cycle whose records were persisted.",
		}),
		FragmentsLocated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fuel_stock",
			Name:      "fragments_located_total",
			Help:      "Stock fragments found in the source page.",
		}),
		FragmentsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fuel_stock",
			Name:      "fragments_skipped_total",
			Help:      "Fragments dropped because a mandatory field was unusable.",
		}, []string{"field"}),
		UnregisteredStations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fuel_stock",
			Name:      "unregistered_stations_total",
			Help:      "Parsed fragments whose station is not in the registry.",
		}),
		RecordsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fuel_stock",
			Name:      "records_written_total",
			Help:      "Station records handed to the sinks successfully.",
		}),
		StationsAvailable: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fuel_stock",
			Name:      "stations_available",
			Help:      "Stations reporting stock in the last cycle.",
		}),
		StationsDepleted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fuel_stock",
			Name:      "stations_depleted",
			Help:      "Stations reported as depleted in the last cycle.",
		}),
	}
}
