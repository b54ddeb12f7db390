package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // SOURCE_TIMEZONE must resolve on minimal images

	"fortio.org/safecast"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	SourceURL       string
	SourceTimeout   time.Duration
	SourceUserAgent string
	SourceHTMLText  bool
	SourceProductID int
	SourceLocation  *time.Location

	PollInterval time.Duration
	CycleTimeout time.Duration

	DatabaseURL      string
	DatabaseMaxConns int32

	// RegistryFile overrides the embedded station table when set.
	RegistryFile string

	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// Mapbox geocoding configuration.
	MapboxToken   string
	MapboxEnabled bool
	MapboxTimeout time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	sourceTimeout, err := parsePositiveDuration("SOURCE_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	pollInterval, err := parsePositiveDuration("POLL_INTERVAL", "5m")
	if err != nil {
		return nil, err
	}
	cycleTimeout, err := parsePositiveDuration("CYCLE_TIMEOUT", "1m")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	productID, err := parsePositiveInt("SOURCE_PRODUCT_ID", 134)
	if err != nil {
		return nil, err
	}
	maxConnsInt, err := parsePositiveInt("DATABASE_MAX_CONNS", 4)
	if err != nil {
		return nil, err
	}
	maxConns, err := safecast.Conv[int32](maxConnsInt)
	if err != nil {
		return nil, fmt.Errorf("invalid DATABASE_MAX_CONNS: %w", err)
	}

	loc, err := time.LoadLocation(sharedcfg.EnvOrDefault("SOURCE_TIMEZONE", "America/La_Paz"))
	if err != nil {
		return nil, fmt.Errorf("invalid SOURCE_TIMEZONE: %w", err)
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		SourceURL:       os.Getenv("SOURCE_URL"),
		SourceTimeout:   sourceTimeout,
		SourceUserAgent: sharedcfg.EnvOrDefault("SOURCE_USER_AGENT", defaultUserAgent),
		SourceHTMLText:  sharedcfg.EnvOrDefault("SOURCE_HTML_TEXT", "true") == "true",
		SourceProductID: productID,
		SourceLocation:  loc,

		PollInterval: pollInterval,
		CycleTimeout: cycleTimeout,

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DatabaseMaxConns: maxConns,

		RegistryFile: os.Getenv("REGISTRY_FILE"),

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "fuel-station-stock"),

		MapboxToken:   mapboxToken,
		MapboxEnabled: mapboxEnabled,
		MapboxTimeout: mapboxTimeout,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.SourceURL == "" {
		return nil, errors.New("SOURCE_URL is required")
	}
	if u, err := url.Parse(cfg.SourceURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("SOURCE_URL must be an absolute URL")
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.CycleTimeout > cfg.PollInterval {
		return nil, errors.New("CYCLE_TIMEOUT must not exceed POLL_INTERVAL")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > 1<<20 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
