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
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/CodeAbbas/london-bus-time-checker/internal/adapters/http"
	natsadapter "github.com/CodeAbbas/london-bus-time-checker/internal/adapters/nats"
	"github.com/CodeAbbas/london-bus-time-checker/internal/adapters/postgres"
	"github.com/CodeAbbas/london-bus-time-checker/internal/adapters/tfl"
	"github.com/CodeAbbas/london-bus-time-checker/internal/adapters/valkey"
	"github.com/CodeAbbas/london-bus-time-checker/internal/core/domain"
	"github.com/CodeAbbas/london-bus-time-checker/internal/core/mapengine"
	"github.com/CodeAbbas/london-bus-time-checker/internal/core/usecases"
	"github.com/CodeAbbas/london-bus-time-checker/internal/pkg/config"
	"github.com/CodeAbbas/london-bus-time-checker/internal/pkg/logging"
	"github.com/CodeAbbas/london-bus-time-checker/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("buschecker-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

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
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go db.ReportPoolMetrics(ctx, 15*time.Second)

	// Cache
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
	}

	// Raw NATS connection for the WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Upstream source
	src := tfl.New(cfg.TfL.BaseURL, cfg.TfL.AppKey)

	// Use cases
	stopSvc := usecases.NewStopService(src, cache, time.Duration(cfg.TfL.SearchTimeout)*time.Second)
	arrivalSvc := usecases.NewArrivalService(src, cache)
	favoritesSvc := usecases.NewFavoritesService(postgres.NewFavoritesRepo(db))

	deps := &http.Dependencies{
		Stops:     stopSvc,
		Arrivals:  arrivalSvc,
		Favorites: favoritesSvc,
		MapCfg: mapengine.Config{
			MinZoom:       cfg.Map.MinZoom,
			MaxZoom:       cfg.Map.MaxZoom,
			DefaultCenter: domain.GeoPoint{Lat: cfg.Map.CenterLat, Lon: cfg.Map.CenterLon},
			DefaultZoom:   cfg.Map.DefaultZoom,
		},
		TileURL: cfg.Map.TileURL,
		NATS:    natsConn,
		DB:      db,
		Cache:   cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "London Bus Time Checker API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
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
