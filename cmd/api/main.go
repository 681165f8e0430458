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

	"github.com/offenesthueringen/bahnclip/internal/adapters/http"
	"github.com/offenesthueringen/bahnclip/internal/adapters/memory"
	natsadapter "github.com/offenesthueringen/bahnclip/internal/adapters/nats"
	"github.com/offenesthueringen/bahnclip/internal/adapters/postgres"
	"github.com/offenesthueringen/bahnclip/internal/adapters/valkey"
	"github.com/offenesthueringen/bahnclip/internal/core/domain"
	"github.com/offenesthueringen/bahnclip/internal/core/ports"
	"github.com/offenesthueringen/bahnclip/internal/core/usecases"
	"github.com/offenesthueringen/bahnclip/internal/pkg/config"
	"github.com/offenesthueringen/bahnclip/internal/pkg/logging"
	"github.com/offenesthueringen/bahnclip/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("bahnclip-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	deps := &http.Dependencies{
		DefaultRegion:    cfg.Clip.Region,
		DefaultTolerance: cfg.Clip.Tolerance,
		SpecPath:         http.DefaultSpecPath,
	}

	// Database; without it run history is kept in memory
	var runs ports.RunRepository
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		slog.Warn("database unavailable, keeping runs in memory", "error", err)
		runs = memory.NewRunRepo()
	} else {
		defer db.Close()
		go db.ReportPoolMetrics(ctx, 15*time.Second)
		runs = postgres.NewRunRepo(db)
		deps.DB = db
	}

	// Cache
	var cache ports.CacheService
	vc, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer vc.Close()
		cache = vc
		deps.Cache = vc
	}

	// NATS
	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
		deps.NATS = pub.Conn()
	}

	// Run audit log
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats subscriber unavailable", "error", err)
	} else {
		defer sub.Close()
		if err := auditRuns(ctx, sub); err != nil {
			slog.Warn("run audit subscription failed", "error", err)
		}
	}

	// Use cases
	deps.Simplifier = usecases.NewSimplifyService(cache, publisher)
	deps.Clips = usecases.NewClipService(deps.Simplifier, runs, publisher, cfg.Clip.Workers)

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimitMB * 1024 * 1024,
		AppName:      "bahnclip API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
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

	// In-flight clip runs get up to 30s to finish
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// auditRuns logs every completed run, including those from cmd/clip and the worker.
func auditRuns(ctx context.Context, sub ports.EventSubscriber) error {
	return sub.SubscribeRunCompleted(ctx, func(ctx context.Context, run *domain.ClipRun) error {
		slog.Info("run completed",
			"run_id", run.ID,
			"region", run.Region,
			"points", fmt.Sprintf("%d => %d", run.BoundaryPoints, run.SimplifiedPoints),
			"sections", fmt.Sprintf("%d => %d => %d", run.SectionsTotal, run.SectionsInBBox, run.SectionsKept),
		)
		return nil
	})
}
