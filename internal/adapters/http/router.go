package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotekeeper/internal/platform/telemetry"
)

// DefaultRequestTimeout is the default timeout for API requests.
const DefaultRequestTimeout = 30 * time.Second

// APIPrefix is the route group of the public API.
const APIPrefix = "/api/v1"

// ImportPath is the quote import route. It has its own body limit.
const ImportPath = APIPrefix + "/quotes/import"

// RouterConfig contains configuration for setting up the router.
// Nil handlers are skipped.
type RouterConfig struct {
	// ServiceName labels spans and HTTP metrics.
	ServiceName string

	HealthHandler       *handlers.HealthHandler
	QuoteHandler        *handlers.QuoteHandler
	SyncHandler         *handlers.SyncHandler
	NotificationHandler *handlers.NotificationHandler

	// Timeout is the API request deadline. Zero disables it.
	Timeout time.Duration
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery - catch panics first
//  2. Request ID - generate/extract request ID
//  3. Correlation ID - handle distributed tracing correlation
//  4. OpenTelemetry - tracing and metrics
//  5. Logging - request logging (skips /-/ and the notification stream)
//  6. Timeout - request deadline on /api/v1, except the notification stream
//
// Route groups:
//   - /-/ (internal): probes and metrics
//   - /api/v1/ (public API): quotes, sync and notifications
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	streamPath := APIPrefix + handlers.StreamPath

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.CorrelationID(),
	)
	engine.Use(telemetry.Middleware(cfg.ServiceName)...)
	engine.Use(middleware.Logging(streamPath))

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutesOnEngine(engine)
	}

	apiV1 := engine.Group(APIPrefix)
	apiV1.Use(middleware.Timeout(cfg.Timeout, streamPath))

	if cfg.QuoteHandler != nil {
		cfg.QuoteHandler.RegisterQuoteRoutes(apiV1)
	}

	if cfg.SyncHandler != nil {
		cfg.SyncHandler.RegisterSyncRoutes(apiV1)
	}

	if cfg.NotificationHandler != nil {
		cfg.NotificationHandler.RegisterNotificationRoutes(apiV1)
	}
}
