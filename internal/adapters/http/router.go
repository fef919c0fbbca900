package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/kadal/internal/pkg/metrics"
)

const (
	// Earth Engine computations routinely take tens of seconds.
	analysisTimeout = 120 * time.Second
	queryTimeout    = 180 * time.Second
	lookupTimeout   = 15 * time.Second
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP, probes exempt
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health" || c.Path() == "/ready" || c.Path() == "/metrics"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, ErrTypeRateLimited,
				"Rate limit exceeded", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", deps.Version)
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/health", HealthHandler(deps))
	app.Get("/ready", ReadyHandler(deps))
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Kadal API", "version": deps.Version})
	})

	api := app.Group("/api")

	// Earth Engine analysis
	api.Get("/similarity-heatmap", timeout.NewWithContext(SimilarityHeatmapHandler(deps), analysisTimeout))
	api.Post("/similarity-heatmap", timeout.NewWithContext(PostSimilarityHeatmapHandler(deps), analysisTimeout))
	api.Get("/embeddings", timeout.NewWithContext(EmbeddingsHandler(deps), analysisTimeout))
	api.Post("/embeddings", timeout.NewWithContext(PostEmbeddingsHandler(deps), analysisTimeout))
	api.Post("/satellite/viewport", timeout.NewWithContext(ViewportImageryHandler(deps), analysisTimeout))
	api.Get("/satellite/visualizations", VisualizationsHandler(deps))

	// Natural-language queries
	api.Post("/mcp/query", timeout.NewWithContext(QueryHandler(deps), queryTimeout))
	api.Get("/mcp/history", timeout.NewWithContext(QueryHistoryHandler(deps), lookupTimeout))

	// Lookups and reference data
	api.Get("/geocode", timeout.NewWithContext(GeocodeHandler(deps), lookupTimeout))
	api.Get("/datasets", DatasetSearchHandler())
	api.Get("/datasets/*", DatasetHandler())
	api.Get("/demo-locations", DemoLocationsHandler())
	api.Get("/analysis-types", AnalysisTypesHandler())
	api.Get("/monitor/reports", timeout.NewWithContext(MonitorReportsHandler(deps), lookupTimeout))

	// GraphQL
	app.Post("/graphql", timeout.NewWithContext(GraphQLHandler(deps), lookupTimeout))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
