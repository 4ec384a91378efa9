package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-ingest/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-ingest/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-ingest/internal/platform/config"
	"github.com/jsamuelsen/quote-ingest/internal/platform/telemetry"
)

// DefaultRequestTimeout is the default timeout for API requests.
const DefaultRequestTimeout = 30 * time.Second

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	Logger *slog.Logger

	AppConfig *config.AppConfig

	// HealthHandler serves /-/. Nil leaves those routes out.
	HealthHandler *handlers.HealthHandler

	// QuoteHandler serves /api/v1. Nil leaves those routes out.
	QuoteHandler *handlers.QuoteHandler

	// Timeout bounds /api/v1 requests. Zero disables it.
	Timeout time.Duration
}

// NewDefaultRouterConfig creates a RouterConfig with the default timeout.
func NewDefaultRouterConfig(
	logger *slog.Logger,
	appCfg *config.AppConfig,
	healthHandler *handlers.HealthHandler,
	quoteHandler *handlers.QuoteHandler,
) RouterConfig {
	return RouterConfig{
		Logger:        logger,
		AppConfig:     appCfg,
		HealthHandler: healthHandler,
		QuoteHandler:  quoteHandler,
		Timeout:       DefaultRequestTimeout,
	}
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery
//  2. Context logger
//  3. OpenTelemetry tracing, then HTTP metrics and the trace ID header
//  4. Request ID and correlation ID, which enrich the context logger
//  5. Logging (skips /-/ endpoints)
//  6. Timeout, on /api/v1 only
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.HandleMethodNotAllowed = true
	engine.NoRoute(noRoute)
	engine.NoMethod(noMethod)

	engine.Use(
		middleware.Recovery(),
		middleware.ContextLogger(cfg.Logger),
		telemetry.TracingMiddleware(cfg.AppConfig.Name),
		telemetry.Middleware(),
		middleware.RequestID(),
		middleware.CorrelationID(),
		middleware.Logging(),
	)

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(engine)
	}

	apiV1 := engine.Group("/api/v1")
	if cfg.Timeout > 0 {
		apiV1.Use(middleware.Timeout(cfg.Timeout))
	}

	if cfg.QuoteHandler != nil {
		cfg.QuoteHandler.RegisterRoutes(apiV1)
	}
}
