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

	"github.com/olaizola/maplabel/internal/adapters/http"
	"github.com/olaizola/maplabel/internal/adapters/imagestore"
	natsadapter "github.com/olaizola/maplabel/internal/adapters/nats"
	"github.com/olaizola/maplabel/internal/adapters/postgres"
	"github.com/olaizola/maplabel/internal/adapters/tilesource"
	"github.com/olaizola/maplabel/internal/adapters/valkey"
	"github.com/olaizola/maplabel/internal/core/composite"
	"github.com/olaizola/maplabel/internal/core/ports"
	"github.com/olaizola/maplabel/internal/core/usecases"
	"github.com/olaizola/maplabel/internal/pkg/config"
	"github.com/olaizola/maplabel/internal/pkg/logging"
	"github.com/olaizola/maplabel/internal/pkg/metrics"
	"github.com/olaizola/maplabel/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("maplabel-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, sessions and caching disabled until it returns", "error", err)
	} else {
		defer cache.Close()
	}

	// NATS
	nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer nc.Close()
	}

	// Raw NATS connection for the WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Composite image storage
	images, err := imagestore.New(cfg.Storage.Root)
	if err != nil {
		log.Fatalf("image store: %v", err)
	}

	// Tile source with valkey read-through cache
	tileOpts := []tilesource.Option{}
	if cache != nil {
		tileOpts = append(tileOpts, tilesource.WithCache(cache, cfg.Tiles.CacheTTL))
	}
	tiles := tilesource.New(
		cfg.Tiles.Template,
		cfg.Tiles.SubdomainList(),
		cfg.Tiles.TileSize,
		time.Duration(cfg.Tiles.FetchTimeout)*time.Second,
		slog.Default(),
		tileOpts...,
	)

	engine := &composite.Engine{
		Source:      tiles,
		TileSize:    cfg.Tiles.TileSize,
		Workers:     cfg.Tiles.Workers,
		MaxTiles:    cfg.Tiles.MaxPerRequest,
		JPEGQuality: cfg.Tiles.JPEGQuality,
		FetchBudget: http.RequestTimeout - 5*time.Second,
	}

	// Repos
	boxRepo := postgres.NewBoxRepo(db)
	datasetRepo := postgres.NewDatasetRepo(db)
	userRepo := postgres.NewUserRepo(db)
	exportRepo := postgres.NewExportRepo(db)

	// Use cases. Typed-nil guards keep failed valkey/nats connections from
	// reaching the services as non-nil interfaces.
	var cacheSvc ports.CacheService
	if cache != nil {
		cacheSvc = cache
	}
	var events ports.EventPublisher
	if nc != nil {
		events = nc
	}
	boxSvc := usecases.NewBoxService(boxRepo, datasetRepo, images, events, cacheSvc, engine)
	datasetSvc := usecases.NewDatasetService(datasetRepo, boxRepo, cacheSvc)
	userSvc := usecases.NewUserService(userRepo, cacheSvc, cfg.Auth.SessionTTL)
	exportSvc := usecases.NewExportService(exportRepo, datasetRepo, events)

	deps := &http.Dependencies{
		Boxes:    boxSvc,
		Datasets: datasetSvc,
		Users:    userSvc,
		Exports:  exportSvc,
		NATS:     natsConn,
		DB:       db,
		Cache:    cache,
	}

	// Periodically export pgx pool gauges
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.UpdateDBPoolMetrics(db.Pool.Stat())
			}
		}
	}()

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "maplabel API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
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
