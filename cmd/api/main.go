package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/geolocator/internal/adapters/http"
	"github.com/samirrijal/geolocator/internal/adapters/mapbox"
	natsadapter "github.com/samirrijal/geolocator/internal/adapters/nats"
	"github.com/samirrijal/geolocator/internal/adapters/postgres"
	"github.com/samirrijal/geolocator/internal/adapters/valkey"
	"github.com/samirrijal/geolocator/internal/core/ports"
	"github.com/samirrijal/geolocator/internal/core/usecases"
	"github.com/samirrijal/geolocator/internal/pkg/auth"
	"github.com/samirrijal/geolocator/internal/pkg/config"
	"github.com/samirrijal/geolocator/internal/pkg/logging"
	"github.com/samirrijal/geolocator/internal/pkg/metrics"
	"github.com/samirrijal/geolocator/internal/pkg/telemetry"
	"github.com/samirrijal/geolocator/internal/workflows"
)

func main() {
	cfg, err := config.Load("geolocator-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Valkey backs the rate limiter; without it limits are per instance.
	limiterStore, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.Prefix)
	if err != nil {
		slog.Warn("valkey unavailable, using in-memory rate limits", "error", err)
		limiterStore = nil
	} else {
		defer limiterStore.Close()
	}

	// NATS. The WebSocket relay subscribes on the publisher's connection.
	var (
		events   ports.EventPublisher
		natsConn *nats.Conn
	)
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, events disabled", "error", err)
	} else {
		defer pub.Close()
		events = pub
		natsConn = pub.Conn()
	}

	// Repos
	userRepo := postgres.NewUserRepo(db)
	gameRepo := postgres.NewGameRepo(db)

	// Guess recording: one database transaction, or a Temporal saga run
	// by cmd/recorder.
	opts := usecases.GameOptions{
		MaxAttempts:     cfg.Game.MaxAttempts,
		LeaderboardSize: cfg.Game.LeaderboardSize,
		HistorySize:     cfg.Game.HistorySize,
	}
	if cfg.Recorder.Mode == config.RecorderTemporal {
		tc, err := client.Dial(client.Options{
			HostPort: cfg.Recorder.TemporalHost,
			Logger:   slog.Default(),
		})
		if err != nil {
			log.Fatalf("temporal client: %v", err)
		}
		defer tc.Close()
		opts.Recorder = workflows.NewRecorder(tc, cfg.Recorder.TaskQueue)
		slog.Info("guess recorder", "mode", cfg.Recorder.Mode, "task_queue", cfg.Recorder.TaskQueue)
	}

	// Use cases
	geocoder := mapbox.NewGeocoder(cfg.Mapbox.GeocodingURL, cfg.Mapbox.AccessToken, cfg.Mapbox.Timeout())
	imager := mapbox.NewStaticMaps(cfg.Mapbox.StaticURL, cfg.Mapbox.AccessToken)
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())

	locationSvc := usecases.NewLocationService(geocoder, nil)
	gameSvc := usecases.NewGameService(locationSvc, gameRepo, userRepo, imager, events, opts)
	userSvc := usecases.NewUserService(userRepo, tokens)

	deps := &http.Dependencies{
		Games:  gameSvc,
		Users:  userSvc,
		Tokens: tokens,
		NATS:   natsConn,
		DB:     db,
		Valkey: limiterStore,
	}

	// DB pool gauges
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.UpdateDBPoolMetrics(db.Stat())
			case <-ctx.Done():
				return
			}
		}
	}()

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
		AppName:      "GeoLocator API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,PUT,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
