package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	temporallog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	"github.com/offenesthueringen/bahnclip/internal/adapters/geojson"
	"github.com/offenesthueringen/bahnclip/internal/adapters/memory"
	natsadapter "github.com/offenesthueringen/bahnclip/internal/adapters/nats"
	"github.com/offenesthueringen/bahnclip/internal/adapters/postgres"
	"github.com/offenesthueringen/bahnclip/internal/adapters/valkey"
	"github.com/offenesthueringen/bahnclip/internal/core/domain"
	"github.com/offenesthueringen/bahnclip/internal/core/ports"
	"github.com/offenesthueringen/bahnclip/internal/core/usecases"
	"github.com/offenesthueringen/bahnclip/internal/pkg/config"
	"github.com/offenesthueringen/bahnclip/internal/pkg/logging"
	"github.com/offenesthueringen/bahnclip/internal/workflows"
)

// usage:
//
//	clipworker                              run the worker
//	clipworker submit [boundary] [sections] start a ClipWorkflow and wait for it
func main() {
	cfg, err := config.Load("bahnclip-clipworker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    temporallog.NewStructuredLogger(logger),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	if len(os.Args) > 1 && os.Args[1] == "submit" {
		if err := submit(c, cfg, os.Args[2:]); err != nil {
			slog.Error("workflow failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := serve(c, cfg); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

func serve(c client.Client, cfg *config.Config) error {
	ctx := context.Background()

	var runs ports.RunRepository
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		slog.Warn("database unavailable, keeping runs in worker memory", "error", err)
		runs = memory.NewRunRepo()
	} else {
		defer db.Close()
		runs = postgres.NewRunRepo(db)
	}

	var cache ports.CacheService
	if vc, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer vc.Close()
		cache = vc
	}

	var publisher ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	simplifier := usecases.NewSimplifyService(cache, publisher)

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.ClipWorkflow)
	w.RegisterActivity(&workflows.ClipActivities{
		Source: geojson.NewReader(time.Duration(cfg.Clip.FetchTimeout) * time.Second),
		Writer: geojson.NewWriter(geojson.WriterConfig{
			Dir:          cfg.Clip.OutputDir,
			BoundaryFile: cfg.Clip.BoundaryOut,
			SectionsFile: cfg.Clip.SectionsOut,
			BoundaryVar:  cfg.Clip.BoundaryVar,
			SectionsVar:  cfg.Clip.SectionsVar,
		}),
		Simplifier: simplifier,
		Clips:      usecases.NewClipService(simplifier, runs, publisher, cfg.Clip.Workers),
	})

	slog.Info("clip worker started", "task_queue", cfg.Temporal.TaskQueue)
	return w.Run(worker.InterruptCh())
}

func submit(c client.Client, cfg *config.Config, args []string) error {
	input := workflows.ClipInput{
		Region:           cfg.Clip.Region,
		BoundaryLocation: cfg.Clip.Boundary,
		SectionsLocation: cfg.Clip.Sections,
		Tolerance:        cfg.Clip.Tolerance,
		BBox:             cfg.Clip.BBox,
	}
	if len(args) > 0 {
		input.BoundaryLocation = args[0]
	}
	if len(args) > 1 {
		input.SectionsLocation = args[1]
	}

	ctx := context.Background()
	we, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "clip-" + uuid.NewString(),
		TaskQueue: cfg.Temporal.TaskQueue,
	}, workflows.ClipWorkflow, input)
	if err != nil {
		return fmt.Errorf("start workflow: %w", err)
	}
	slog.Info("workflow started", "workflow_id", we.GetID(), "run_id", we.GetRunID())

	var run domain.ClipRun
	if err := we.Get(ctx, &run); err != nil {
		return err
	}
	fmt.Printf("%s: %d => %d\n", run.Region, run.BoundaryPoints, run.SimplifiedPoints)
	fmt.Printf("Sections: %d => %d => %d\n", run.SectionsTotal, run.SectionsInBBox, run.SectionsKept)
	return nil
}
