package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/geolocator/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // Balance speed vs compression ratio
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP, shared through Valkey
	// when it is configured.
	limiterCfg := limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited",
				"too many requests, please try again later")
		},
	}
	if deps.Valkey != nil {
		limiterCfg.Storage = deps.Valkey
	}
	app.Use(limiter.New(limiterCfg))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("Cache-Control", "no-store")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Get("/", RootHandler())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/health", HealthHandler(deps))
	app.Get("/ready", ReadyHandler(deps))

	requireAuth := RequireAuth(deps.Tokens)

	// Users: 10s per-request timeout (bcrypt is slow on purpose)
	users := app.Group("/api/users")
	users.Post("/register", timeout.NewWithContext(RegisterHandler(deps), 10*time.Second))
	users.Post("/login", timeout.NewWithContext(LoginHandler(deps), 10*time.Second))
	users.Get("/profile", requireAuth, timeout.NewWithContext(GetProfileHandler(deps), 10*time.Second))
	users.Put("/profile", requireAuth, timeout.NewWithContext(UpdateProfileHandler(deps), 10*time.Second))

	// Games: all routes require a session. Starting a round may wait on up
	// to max_attempts geocoder calls, so it gets a longer budget.
	games := app.Group("/api/games", requireAuth)
	games.Post("/start", timeout.NewWithContext(StartGameHandler(deps), 60*time.Second))
	games.Post("/guess", timeout.NewWithContext(SubmitGuessHandler(deps), 15*time.Second))
	games.Get("/highscores", timeout.NewWithContext(HighScoresHandler(deps), 15*time.Second))
	games.Get("/history", timeout.NewWithContext(HistoryHandler(deps), 15*time.Second))
	games.Get("/stats", timeout.NewWithContext(StatsHandler(deps), 15*time.Second))

	// GraphQL
	app.Post("/graphql", requireAuth, GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket live feed
	if deps.NATS != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
	}

	app.Use(NotFoundHandler())
}
