// Package postgres persists reconciled station records with pgx.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/fuel-stock-etl/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config configures the pgx pool.
type Config struct {
	URL      string
	MaxConns int32
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS station_stock (
	station_id             INTEGER PRIMARY KEY,
	display_name           TEXT             NOT NULL,
	location_text          TEXT             NOT NULL,
	latitude               DOUBLE PRECISION NOT NULL,
	longitude              DOUBLE PRECISION NOT NULL,
	product_id             INTEGER          NOT NULL,
	stock_litres           INTEGER          NOT NULL CHECK (stock_litres >= 0),
	stock_litres_formatted TEXT             NOT NULL,
	measured_at            TEXT             NOT NULL,
	estimated_vehicles     DOUBLE PRECISION NOT NULL,
	queue_minutes          INTEGER          NOT NULL,
	status                 TEXT             NOT NULL CHECK (status IN ('available', 'depleted')),
	updated_at             TIMESTAMPTZ      NOT NULL DEFAULT now()
)`

// upsertSQL only rewrites a row, updated_at included, when a field differs,
// so repeating identical input is a no-op.
const upsertSQL = `
INSERT INTO station_stock (
	station_id, display_name, location_text, latitude, longitude, product_id,
	stock_litres, stock_litres_formatted, measured_at, estimated_vehicles,
	queue_minutes, status, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
ON CONFLICT (station_id) DO UPDATE SET
	display_name           = EXCLUDED.display_name,
	location_text          = EXCLUDED.location_text,
	latitude               = EXCLUDED.latitude,
	longitude              = EXCLUDED.longitude,
	product_id             = EXCLUDED.product_id,
	stock_litres           = EXCLUDED.stock_litres,
	stock_litres_formatted = EXCLUDED.stock_litres_formatted,
	measured_at            = EXCLUDED.measured_at,
	estimated_vehicles     = EXCLUDED.estimated_vehicles,
	queue_minutes          = EXCLUDED.queue_minutes,
	status                 = EXCLUDED.status,
	updated_at             = EXCLUDED.updated_at
WHERE (
	station_stock.display_name, station_stock.location_text, station_stock.latitude,
	station_stock.longitude, station_stock.product_id, station_stock.stock_litres,
	station_stock.stock_litres_formatted, station_stock.measured_at,
	station_stock.estimated_vehicles, station_stock.queue_minutes, station_stock.status
) IS DISTINCT FROM (
	EXCLUDED.display_name, EXCLUDED.location_text, EXCLUDED.latitude,
	EXCLUDED.longitude, EXCLUDED.product_id, EXCLUDED.stock_litres,
	EXCLUDED.stock_litres_formatted, EXCLUDED.measured_at,
	EXCLUDED.estimated_vehicles, EXCLUDED.queue_minutes, EXCLUDED.status
)`

// Sink writes station records to Postgres. It implements pipeline.Sink.
type Sink struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Open connects to Postgres and verifies the connection with a ping.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Sink, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("open database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Sink{pool: pool, logger: logger}, nil
}

// EnsureSchema creates the station_stock table when it does not exist.
func (s *Sink) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create station_stock table: %w", err)
	}
	return nil
}

// Upsert writes all records in a single transaction; either every record is
// stored or none is.
func (s *Sink) Upsert(ctx context.Context, records []domain.StationRecord) error {
	if len(records) == 0 {
		return nil
	}

	var changed int64
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		b := &pgx.Batch{}
		for i := range records {
			b.Queue(upsertSQL, upsertArgs(records[i])...)
		}

		br := tx.SendBatch(ctx, b)
		for i := range records {
			tag, err := br.Exec()
			if err != nil {
				_ = br.Close()
				return fmt.Errorf("upsert station %d: %w", records[i].StationID, err)
			}
			changed += tag.RowsAffected()
		}
		return br.Close()
	})
	if err != nil {
		return &domain.PersistenceError{Sink: "postgres", Err: err}
	}

	s.logger.Debug("station records upserted", "records", len(records), "changed", changed)
	return nil
}

// Ping reports whether the database is reachable.
func (s *Sink) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *Sink) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

func upsertArgs(r domain.StationRecord) []any {
	return []any{
		r.StationID,
		r.DisplayName,
		r.LocationText,
		r.Coordinates.Lat,
		r.Coordinates.Lon,
		r.ProductID,
		r.StockLitres,
		r.StockLitresFormatted,
		r.MeasuredAt,
		r.EstimatedVehicles,
		r.QueueMinutes,
		r.Status,
	}
}
