// Package main is the entry point for the service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen/quote-ingest/internal/adapters/decoders"
	"github.com/jsamuelsen/quote-ingest/internal/adapters/extractor"
	"github.com/jsamuelsen/quote-ingest/internal/adapters/http"
	"github.com/jsamuelsen/quote-ingest/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-ingest/internal/app"
	"github.com/jsamuelsen/quote-ingest/internal/platform/config"
	"github.com/jsamuelsen/quote-ingest/internal/platform/logging"
	"github.com/jsamuelsen/quote-ingest/internal/platform/telemetry"
	"github.com/jsamuelsen/quote-ingest/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	// Configuration errors stop the process before anything starts.
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	logging.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
	)

	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(ctx); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	quoteService, healthRegistry, err := newQuoteService(cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	if err := loadSources(ctx, logger, quoteService, cfg.Ingest.Sources); err != nil {
		return err
	}

	buildInfo := handlers.NewBuildInfo(Version, Commit, BuildTime)

	server := http.New(&cfg.Server, logger)
	http.SetupRouter(server.Engine(), http.NewDefaultRouterConfig(
		logger,
		&cfg.App,
		handlers.NewHealthHandler(healthRegistry, buildInfo, nil),
		handlers.NewQuoteHandler(quoteService),
	))

	serverErr, err := server.Start()
	if err != nil {
		return err
	}

	return waitForShutdown(ctx, logger, server, serverErr, cfg.Server.ShutdownTimeout)
}

// newQuoteService wires the extractor, decoders and registry behind the
// quote service and registers the health checks of each. Ingestion metrics
// are registered with reg, which /-/metrics must gather from.
func newQuoteService(
	cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer,
) (*app.QuoteService, *ports.DefaultHealthRegistry, error) {
	runner, err := extractor.New(&extractor.Config{
		Binary:  cfg.Ingest.Extractor.Binary,
		Timeout: cfg.Ingest.Extractor.Timeout,
		Breaker: extractor.BreakerConfig{
			MaxFailures: cfg.Ingest.Extractor.CircuitBreaker.MaxFailures,
			Cooldown:    cfg.Ingest.Extractor.CircuitBreaker.Timeout,
			Probes:      cfg.Ingest.Extractor.CircuitBreaker.HalfOpenLimit,
		},
		Logger: logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating pdf extractor: %w", err)
	}

	registry := app.NewRegistry(decoders.Default(runner), app.RegistryConfig{
		Workers: cfg.Ingest.Workers,
		Metrics: app.NewIngestMetrics(reg),
		Logger:  logger,
	})

	service := app.NewQuoteService(app.QuoteServiceConfig{
		Registry: registry,
		DataDir:  cfg.Ingest.DataDir,
		Logger:   logger,
	})

	healthRegistry := ports.NewHealthRegistry()
	for _, checker := range []ports.HealthChecker{runner, service} {
		if err := healthRegistry.Register(checker); err != nil {
			return nil, nil, fmt.Errorf("registering %s health check: %w", checker.Name(), err)
		}
	}

	return service, healthRegistry, nil
}

// loadSources publishes the startup catalog. A batch that fails
// verification stops startup; recoverable diagnostics are only logged.
func loadSources(ctx context.Context, logger *slog.Logger, service *app.QuoteService, sources []string) error {
	if len(sources) == 0 {
		logger.Warn("no startup sources configured, catalog stays empty until an ingest publishes")
		return nil
	}

	outcome, err := service.Load(ctx, sources)
	if err != nil {
		return fmt.Errorf("loading startup sources: %w", err)
	}

	for _, d := range outcome.Report.Diagnostics() {
		logger.Warn("startup diagnostic", slog.String("diagnostic", d.String()))
	}

	logger.Info("startup catalog loaded",
		slog.Uint64("generation", outcome.Generation),
		slog.Int("quotes", len(outcome.Report.Quotes())),
	)

	return nil
}

// waitForShutdown blocks until a shutdown signal is received or server error occurs.
// It then performs graceful shutdown of the HTTP server.
func waitForShutdown(
	ctx context.Context,
	logger *slog.Logger,
	server *http.Server,
	serverErr <-chan error,
	shutdownTimeout time.Duration,
) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)

	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	logger.Info("initiating graceful shutdown", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("shutdown complete")

	return nil
}
