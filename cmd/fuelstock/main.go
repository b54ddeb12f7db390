package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/fuel-stock-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/fuel-stock-etl/internal/adapter/kafka"
	"github.com/couchcryptid/fuel-stock-etl/internal/adapter/mapbox"
	"github.com/couchcryptid/fuel-stock-etl/internal/adapter/postgres"
	"github.com/couchcryptid/fuel-stock-etl/internal/adapter/source"
	"github.com/couchcryptid/fuel-stock-etl/internal/config"
	"github.com/couchcryptid/fuel-stock-etl/internal/domain"
	"github.com/couchcryptid/fuel-stock-etl/internal/observability"
	"github.com/couchcryptid/fuel-stock-etl/internal/pipeline"
	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry, err := buildRegistry(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build station registry", "error", err)
		os.Exit(1)
	}
	logger.Info("station registry loaded", "stations", registry.Len())

	pg, err := openPostgres(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pg.Close()

	if err := pg.EnsureSchema(ctx); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	sinks := pipeline.FanoutSink{pg}
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		sinks = append(sinks, writer)
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	fetcher := source.NewClient(cfg.SourceURL, cfg.SourceTimeout, cfg.SourceUserAgent, cfg.SourceHTMLText, logger)
	transformer := pipeline.NewTransformer(registry, cfg.SourceProductID, cfg.SourceLocation, logger, metrics)
	p := pipeline.New(fetcher, transformer, sinks, clockwork.NewRealClock(), logger, metrics, cfg.PollInterval, cfg.CycleTimeout)

	srv := httpadapter.NewServer(cfg.HTTPAddr, logger, p, httpadapter.CheckerFunc(pg.Ping))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return p.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("service stopped with error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// openPostgres retries the initial connection so the service survives a
// database that starts after it.
func openPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*postgres.Sink, error) {
	const attempts = 5
	backoff := time.Second
	for attempt := 1; ; attempt++ {
		pg, err := postgres.Open(ctx, postgres.Config{URL: cfg.DatabaseURL, MaxConns: cfg.DatabaseMaxConns}, logger)
		if err == nil || attempt == attempts {
			return pg, err
		}
		logger.Warn("database not reachable, retrying", "attempt", attempt, "backoff", backoff, "error", err)
		if !retry.SleepWithContext(ctx, backoff) {
			return nil, ctx.Err()
		}
		backoff = retry.NextBackoff(backoff, 15*time.Second)
	}
}

// buildRegistry loads the station table and, when geocoding is enabled,
// fills missing locations before freezing it.
func buildRegistry(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*domain.Registry, error) {
	stations, err := config.LoadStations(cfg.RegistryFile)
	if err != nil {
		return nil, err
	}

	if cfg.MapboxEnabled {
		geoCtx, cancel := context.WithTimeout(ctx, cfg.MapboxTimeout*time.Duration(len(stations)))
		defer cancel()
		geocoder := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger)
		stations = domain.FillLocations(geoCtx, stations, geocoder, logger)
		logger.Info("mapbox geocoding enabled", "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	return domain.NewRegistry(stations)
}
