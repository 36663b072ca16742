package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata" // SCHEDULE_TIMEZONE must resolve in minimal containers

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// MeteoSwiss open-data endpoints.
const (
	DefaultStationsURL     = "https://data.geo.admin.ch/ch.meteoschweiz.messnetz-automatisch/ch.meteoschweiz.messnetz-automatisch_en.csv"
	DefaultMeasurementsURL = "https://data.geo.admin.ch/ch.meteoschweiz.messwerte-aktuell/VQHA80.csv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	StationsURL     string
	MeasurementsURL string
	HTTPTimeout     time.Duration

	// Schedule configuration.
	FetchInterval    time.Duration
	StationsMaxAge   time.Duration
	ScheduleLocation *time.Location
	PollInterval     time.Duration

	// Kafka sink configuration.
	KafkaEnabled           bool
	KafkaBrokers           []string
	KafkaStationsTopic     string
	KafkaMeasurementsTopic string
	KafkaWriteTimeout      time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	httpTimeout, err := parseDuration("HTTP_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	fetchInterval, err := parseDuration("FETCH_INTERVAL", "10m")
	if err != nil {
		return nil, err
	}
	stationsMaxAge, err := parseDuration("STATIONS_INTERVAL", "24h")
	if err != nil {
		return nil, err
	}
	pollInterval, err := parseDuration("POLL_INTERVAL", "100ms")
	if err != nil {
		return nil, err
	}
	kafkaWriteTimeout, err := parseDuration("KAFKA_WRITE_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	if pollInterval > fetchInterval {
		return nil, errors.New("POLL_INTERVAL must not exceed FETCH_INTERVAL")
	}

	tz := sharedcfg.EnvOrDefault("SCHEDULE_TIMEZONE", "Europe/Zurich")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULE_TIMEZONE %q: %w", tz, err)
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		StationsURL:      sharedcfg.EnvOrDefault("STATIONS_URL", DefaultStationsURL),
		MeasurementsURL:  sharedcfg.EnvOrDefault("MEASUREMENTS_URL", DefaultMeasurementsURL),
		HTTPTimeout:      httpTimeout,
		FetchInterval:    fetchInterval,
		StationsMaxAge:   stationsMaxAge,
		ScheduleLocation: loc,
		PollInterval:     pollInterval,

		KafkaEnabled:           kafkaEnabled,
		KafkaBrokers:           brokers,
		KafkaStationsTopic:     sharedcfg.EnvOrDefault("KAFKA_STATIONS_TOPIC", "swissmetnet-stations"),
		KafkaMeasurementsTopic: sharedcfg.EnvOrDefault("KAFKA_MEASUREMENTS_TOPIC", "swissmetnet-measurements"),
		KafkaWriteTimeout:      kafkaWriteTimeout,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.StationsURL == "" {
		return nil, errors.New("STATIONS_URL is required")
	}
	if cfg.MeasurementsURL == "" {
		return nil, errors.New("MEASUREMENTS_URL is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && (cfg.KafkaStationsTopic == "" || cfg.KafkaMeasurementsTopic == "") {
		return nil, errors.New("KAFKA_STATIONS_TOPIC and KAFKA_MEASUREMENTS_TOPIC are required when Kafka is enabled")
	}

	return cfg, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	s := sharedcfg.EnvOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}
