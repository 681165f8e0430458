//go:build integration

package http_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	handler "github.com/offenesthueringen/bahnclip/internal/adapters/http"
	"github.com/offenesthueringen/bahnclip/internal/adapters/postgres"
	"github.com/offenesthueringen/bahnclip/internal/core/domain"
	"github.com/offenesthueringen/bahnclip/internal/core/usecases"
	"github.com/offenesthueringen/bahnclip/internal/pkg/config"
)

// setupTestDB connects to the test database and applies pending migrations.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("bahnclip-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), 4)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	if _, err := postgres.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// setupTestDeps creates dependencies backed by Postgres, no cache.
func setupTestDeps(db *postgres.DB) *handler.Dependencies {
	simplifier := usecases.NewSimplifyService(nil, nil)
	return &handler.Dependencies{
		Simplifier:       simplifier,
		Clips:            usecases.NewClipService(simplifier, postgres.NewRunRepo(db), nil, 2),
		DefaultRegion:    "Integration",
		DefaultTolerance: 0.1,
		DB:               db,
	}
}

func TestIntegration_Ready(t *testing.T) {
	db := setupTestDB(t)
	app := setupApp(setupTestDeps(db))

	resp := get(t, app, "/v1/ready")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
}

func TestIntegration_ClipRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	app := setupApp(setupTestDeps(db))

	res := runClip(t, app)
	t.Cleanup(func() {
		req := httptest.NewRequest("DELETE", "/v1/runs/"+res.Run.ID, nil)
		_, _ = app.Test(req, -1)
	})

	resp := get(t, app, "/v1/runs/"+res.Run.ID)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var run domain.ClipRun
	decode(t, resp, &run)
	if run.SectionsKept != 1 || run.SectionsInBBox != 2 || run.SectionsTotal != 3 {
		t.Errorf("unexpected stored counts: %+v", run)
	}

	sections, err := postgres.NewRunRepo(db).Sections(context.Background(), res.Run.ID)
	if err != nil {
		t.Fatalf("sections: %v", err)
	}
	if len(sections) != 1 || sections[0].ID != "inside" {
		t.Errorf("expected the inside section, got %+v", sections)
	}
	if len(sections[0].Coordinates) != 2 {
		t.Errorf("expected 2 coordinates, got %d", len(sections[0].Coordinates))
	}
}

func TestIntegration_ListRuns(t *testing.T) {
	db := setupTestDB(t)
	app := setupApp(setupTestDeps(db))
	runClip(t, app)

	resp := get(t, app, "/v1/runs?limit=5")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Link") == "" {
		t.Error("expected Link header")
	}
}
