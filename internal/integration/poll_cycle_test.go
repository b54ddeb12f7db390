//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	kafkaadapter "github.com/couchcryptid/fuel-stock-etl/internal/adapter/kafka"
	"github.com/couchcryptid/fuel-stock-etl/internal/adapter/postgres"
	"github.com/couchcryptid/fuel-stock-etl/internal/adapter/source"
	"github.com/couchcryptid/fuel-stock-etl/internal/config"
	"github.com/couchcryptid/fuel-stock-etl/internal/domain"
	"github.com/couchcryptid/fuel-stock-etl/internal/observability"
	"github.com/couchcryptid/fuel-stock-etl/internal/pipeline"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTopic = "fuel-station-stock-test"

type stockRow struct {
	StationID int
	Status    string
	Stock     int
	Formatted string
	Measured  string
	Vehicles  float64
	Queue     int
}

func loadRows(ctx context.Context, t *testing.T, dsn string) []stockRow {
	t.Helper()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	rows, err := pool.Query(ctx, `SELECT station_id, status, stock_litres, stock_litres_formatted,
		measured_at, estimated_vehicles, queue_minutes FROM station_stock ORDER BY station_id`)
	require.NoError(t, err)
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (stockRow, error) {
		var r stockRow
		err := row.Scan(&r.StationID, &r.Status, &r.Stock, &r.Formatted, &r.Measured, &r.Vehicles, &r.Queue)
		return r, err
	})
	require.NoError(t, err)
	return out
}

// TestPollCycle_SourceToPostgresAndKafka runs one full cycle against a fake
// source page, a real Postgres and a real Kafka broker.
func TestPollCycle_SourceToPostgresAndKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
	defer cancel()

	page, err := os.ReadFile("../domain/testdata/guia_saldos.html")
	require.NoError(t, err)
	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	}))
	defer src.Close()

	dsn := startPostgres(ctx, t)
	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	logger := discardLogger()
	metrics := observability.NewMetricsForTesting()

	stations, err := config.LoadStations("")
	require.NoError(t, err)
	reg, err := domain.NewRegistry(stations)
	require.NoError(t, err)

	pg, err := postgres.Open(ctx, postgres.Config{URL: dsn, MaxConns: 2}, logger)
	require.NoError(t, err)
	t.Cleanup(pg.Close)
	require.NoError(t, pg.EnsureSchema(ctx))

	writer := kafkaadapter.NewWriter([]string{broker}, testTopic, logger)
	t.Cleanup(func() { _ = writer.Close() })

	laPaz, err := time.LoadLocation("America/La_Paz")
	require.NoError(t, err)
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.January, 1, 14, 5, 0, 0, time.UTC))

	p := pipeline.New(
		source.NewClient(src.URL, 10*time.Second, "fuel-stock-test", true, logger),
		pipeline.NewTransformer(reg, 134, laPaz, logger, metrics),
		pipeline.FanoutSink{pg, writer},
		clock, logger, metrics, 5*time.Minute, time.Minute,
	)

	result, err := p.RunOnce(ctx)
	require.NoError(t, err)
	require.Len(t, result.Records, reg.Len())
	require.NoError(t, p.CheckReadiness(ctx))

	// Postgres holds one row per registered station.
	rows := loadRows(ctx, t, dsn)
	require.Len(t, rows, reg.Len())
	byID := make(map[int]stockRow, len(rows))
	for _, r := range rows {
		byID[r.StationID] = r
	}
	assert.Equal(t, stockRow{
		StationID: 110, Status: domain.StatusAvailable, Stock: 7675, Formatted: "7,675 Lts.",
		Measured: "2024-01-01 10:00:00", Vehicles: 45.5, Queue: 12,
	}, byID[110])
	assert.Equal(t, domain.StatusDepleted, byID[310].Status)
	assert.Equal(t, "2024-01-01 10:05:00", byID[400].Measured)
	assert.NotContains(t, byID, 999)

	// Kafka receives the same record set, keyed by station id.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	defer consumer.Close()

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	for i, want := range result.Records {
		msg, err := consumer.ReadMessage(readCtx)
		require.NoError(t, err, "read message %d", i)
		assert.Equal(t, strconv.Itoa(want.StationID), string(msg.Key))

		var got domain.StationRecord
		require.NoError(t, json.Unmarshal(msg.Value, &got))
		assert.Equal(t, want, got)
	}

	// A second cycle over the same page only moves depleted timestamps.
	clock.Advance(time.Minute)
	_, err = p.RunOnce(ctx)
	require.NoError(t, err)
	again := loadRows(ctx, t, dsn)
	for _, r := range again {
		if r.Status == domain.StatusDepleted {
			// Depleted stations take the new retrieval time.
			assert.Equal(t, "2024-01-01 10:06:00", r.Measured)
			continue
		}
		assert.Equal(t, byID[r.StationID], r)
	}
}

// TestPollCycle_SourceFailureLeavesTableUntouched checks that a non-2xx
// source response aborts the cycle before anything is written.
func TestPollCycle_SourceFailureLeavesTableUntouched(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer src.Close()

	dsn := startPostgres(ctx, t)
	logger := discardLogger()
	metrics := observability.NewMetricsForTesting()

	stations, err := config.LoadStations("")
	require.NoError(t, err)
	reg, err := domain.NewRegistry(stations)
	require.NoError(t, err)

	pg, err := postgres.Open(ctx, postgres.Config{URL: dsn}, logger)
	require.NoError(t, err)
	t.Cleanup(pg.Close)
	require.NoError(t, pg.EnsureSchema(ctx))

	p := pipeline.New(
		source.NewClient(src.URL, 5*time.Second, "fuel-stock-test", true, logger),
		pipeline.NewTransformer(reg, 134, time.UTC, logger, metrics),
		pg, clockwork.NewFakeClock(), logger, metrics, 5*time.Minute, time.Minute,
	)

	_, err = p.RunOnce(ctx)
	var rerr *domain.RetrievalError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, http.StatusServiceUnavailable, rerr.StatusCode)
	assert.Empty(t, loadRows(ctx, t, dsn))
	assert.Error(t, p.CheckReadiness(ctx))
}
