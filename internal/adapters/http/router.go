package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/olaizola/maplabel/internal/pkg/metrics"
)

// RequestTimeout bounds each labeling request. Composite rendering fetches
// up to the configured tile cap from an external server, so this is looser
// than a typical CRUD budget.
const RequestTimeout = 30 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes. Read-only
// browsing stays public; everything that mutates sits behind RequireAuth.
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

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness, no timeout wrapper on these
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// Auth
	auth := app.Group("/v1/auth")
	auth.Post("/register", timeout.NewWithContext(RegisterHandler(deps), 15*time.Second))
	auth.Post("/login", timeout.NewWithContext(LoginHandler(deps), 15*time.Second))
	auth.Post("/logout", timeout.NewWithContext(LogoutHandler(deps), 15*time.Second))

	// Public read-only surface
	v1 := app.Group("/v1")
	v1.Get("/datasets", timeout.NewWithContext(ListDatasetsHandler(deps), 15*time.Second))
	v1.Get("/datasets/:slug", timeout.NewWithContext(GetDatasetHandler(deps), 15*time.Second))
	v1.Get("/datasets/:slug/boxes", timeout.NewWithContext(ListBoxesHandler(deps), 15*time.Second))
	v1.Get("/datasets/:slug/stats", timeout.NewWithContext(DatasetStatsHandler(deps), 15*time.Second))
	v1.Get("/datasets/:slug/exports", timeout.NewWithContext(ListExportsHandler(deps), 15*time.Second))
	v1.Get("/boxes/:id", timeout.NewWithContext(GetBoxHandler(deps), 15*time.Second))
	v1.Get("/boxes/:id/image", timeout.NewWithContext(BoxImageHandler(deps), 15*time.Second))
	v1.Get("/boxes/:id/label", timeout.NewWithContext(BoxLabelHandler(deps), 15*time.Second))
	v1.Get("/boxes/:id/preview", timeout.NewWithContext(BoxPreviewHandler(deps), 15*time.Second))
	v1.Get("/exports/:id", timeout.NewWithContext(GetExportHandler(deps), 15*time.Second))

	// Authenticated mutations
	authed := app.Group("/v1", RequireAuth(deps))
	authed.Post("/datasets", timeout.NewWithContext(CreateDatasetHandler(deps), 15*time.Second))
	authed.Delete("/datasets/:id", timeout.NewWithContext(DeleteDatasetHandler(deps), 15*time.Second))
	authed.Post("/boxes", timeout.NewWithContext(CreateBoxHandler(deps), RequestTimeout))
	authed.Delete("/boxes/:id", timeout.NewWithContext(DeleteBoxHandler(deps), 15*time.Second))
	authed.Post("/datasets/:id/exports", timeout.NewWithContext(TriggerExportHandler(deps), 15*time.Second))

	// GraphQL (read-only)
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	registry := NewRegistry()
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS, registry)))
}
