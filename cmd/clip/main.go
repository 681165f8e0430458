package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/offenesthueringen/bahnclip/internal/adapters/geojson"
	"github.com/offenesthueringen/bahnclip/internal/adapters/memory"
	natsadapter "github.com/offenesthueringen/bahnclip/internal/adapters/nats"
	"github.com/offenesthueringen/bahnclip/internal/adapters/postgres"
	"github.com/offenesthueringen/bahnclip/internal/adapters/valkey"
	"github.com/offenesthueringen/bahnclip/internal/core/ports"
	"github.com/offenesthueringen/bahnclip/internal/core/usecases"
	"github.com/offenesthueringen/bahnclip/internal/pkg/config"
	"github.com/offenesthueringen/bahnclip/internal/pkg/logging"
)

// usage: clip [boundary] [sections]
//
// Both arguments default to the configured clip.boundary and clip.sections
// and may be file paths or http(s) URLs.
func main() {
	cfg, err := config.Load("bahnclip-clip")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	boundaryLoc, sectionsLoc := cfg.Clip.Boundary, cfg.Clip.Sections
	if len(os.Args) > 1 {
		boundaryLoc = os.Args[1]
	}
	if len(os.Args) > 2 {
		sectionsLoc = os.Args[2]
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, boundaryLoc, sectionsLoc, os.Stdout); err != nil {
		slog.Error("clip failed", "error", err)
		os.Exit(1)
	}
}

// backends holds the optional shared infrastructure used when clip.persist is set.
type backends struct {
	runs      ports.RunRepository
	cache     ports.CacheService
	publisher ports.EventPublisher
	closers   []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func connect(ctx context.Context, cfg *config.Config) (*backends, error) {
	b := &backends{}
	if !cfg.Clip.Persist {
		b.runs = memory.NewRunRepo()
		return b, nil
	}

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	b.closers = append(b.closers, db.Close)
	b.runs = postgres.NewRunRepo(db)

	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, simplifying without cache", "error", err)
	} else {
		b.closers = append(b.closers, cache.Close)
		b.cache = cache
	}

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, events disabled", "error", err)
	} else {
		b.closers = append(b.closers, pub.Close)
		b.publisher = pub
	}
	return b, nil
}

func run(ctx context.Context, cfg *config.Config, boundaryLoc, sectionsLoc string, out io.Writer) error {
	b, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	reader := geojson.NewReader(time.Duration(cfg.Clip.FetchTimeout) * time.Second)
	writer := geojson.NewWriter(geojson.WriterConfig{
		Dir:          cfg.Clip.OutputDir,
		BoundaryFile: cfg.Clip.BoundaryOut,
		SectionsFile: cfg.Clip.SectionsOut,
		BoundaryVar:  cfg.Clip.BoundaryVar,
		SectionsVar:  cfg.Clip.SectionsVar,
	})

	simplifier := usecases.NewSimplifyService(b.cache, b.publisher)
	clips := usecases.NewClipService(simplifier, b.runs, b.publisher, cfg.Clip.Workers)

	boundary, err := reader.LoadBoundary(ctx, boundaryLoc)
	if err != nil {
		return fmt.Errorf("load boundary: %w", err)
	}
	sections, err := reader.LoadSections(ctx, sectionsLoc)
	if err != nil {
		return fmt.Errorf("load sections: %w", err)
	}
	slog.Debug("inputs loaded", "boundary_points", len(boundary.Ring), "sections", len(sections))

	res, err := clips.Clip(ctx, usecases.ClipRequest{
		Region:    cfg.Clip.Region,
		Boundary:  boundary,
		Sections:  sections,
		Tolerance: cfg.Clip.Tolerance,
		BBox:      cfg.Clip.BBox,
	})
	if err != nil {
		return err
	}

	if err := writer.WriteBoundary(ctx, &res.Simplified); err != nil {
		return fmt.Errorf("write boundary: %w", err)
	}
	if err := writer.WriteSections(ctx, res.Kept); err != nil {
		return fmt.Errorf("write sections: %w", err)
	}

	r := res.Run
	fmt.Fprintf(out, "%s: %d => %d\n", r.Region, r.BoundaryPoints, r.SimplifiedPoints)
	fmt.Fprintf(out, "Sections: %d => %d => %d\n", r.SectionsTotal, r.SectionsInBBox, r.SectionsKept)

	slog.Info("clip run completed",
		"run_id", r.ID,
		"region", r.Region,
		"kept_km", fmt.Sprintf("%.1f", r.KeptLengthKm),
		"duration", r.Duration,
	)
	return nil
}
