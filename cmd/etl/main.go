package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/swissmetnet-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/swissmetnet-etl/internal/adapter/kafka"
	"github.com/couchcryptid/swissmetnet-etl/internal/adapter/memory"
	"github.com/couchcryptid/swissmetnet-etl/internal/adapter/meteoswiss"
	"github.com/couchcryptid/swissmetnet-etl/internal/config"
	"github.com/couchcryptid/swissmetnet-etl/internal/observability"
	"github.com/couchcryptid/swissmetnet-etl/internal/pipeline"
	"github.com/couchcryptid/swissmetnet-etl/internal/scheduler"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	client := meteoswiss.NewClient(cfg.StationsURL, cfg.MeasurementsURL, cfg.HTTPTimeout, logger, metrics)
	store := memory.NewStore(metrics)
	loaders := []pipeline.Loader{store}

	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		loaders = append(loaders, writer)
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers,
			"stations_topic", cfg.KafkaStationsTopic, "measurements_topic", cfg.KafkaMeasurementsTopic)
	} else {
		logger.Info("kafka sink disabled")
	}

	p := pipeline.New(client, loaders, clock, logger, metrics, cfg.StationsMaxAge)

	sched, err := scheduler.New(scheduler.Options{
		Name:         "swissmetnet",
		Interval:     cfg.FetchInterval,
		Location:     cfg.ScheduleLocation,
		PollInterval: cfg.PollInterval,
		Clock:        clock,
		Logger:       logger,
		Metrics:      metrics,
	})
	if err != nil {
		logger.Error("failed to create scheduler", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Populate the snapshot before the first boundary; failures are already logged.
	if err := p.Tick(ctx); err != nil {
		logger.Debug("initial refresh incomplete", "error", err)
	}

	handle, err := sched.Start(p.Tick)
	if err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	select {
	case <-ctx.Done():
	case <-handle.Done():
	}
	logger.Info("shutting down")

	handle.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
