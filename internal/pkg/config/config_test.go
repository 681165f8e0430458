package config

import (
	"os"
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("bahnclip-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Telemetry.ServiceName != "bahnclip-test" {
		t.Errorf("expected service name bahnclip-test, got %s", cfg.Telemetry.ServiceName)
	}
	if cfg.Clip.Tolerance != 0.01 {
		t.Errorf("expected tolerance 0.01, got %v", cfg.Clip.Tolerance)
	}
	if cfg.Clip.BBox.MinX != 9.8778443239 || cfg.Clip.BBox.MaxY != 51.6490678544 {
		t.Errorf("unexpected default bbox: %+v", cfg.Clip.BBox)
	}
	if cfg.Clip.SectionsVar != "Streckenabschnitte" {
		t.Errorf("expected Streckenabschnitte, got %s", cfg.Clip.SectionsVar)
	}
	if cfg.Temporal.TaskQueue != "clip-queue" {
		t.Errorf("expected clip-queue, got %s", cfg.Temporal.TaskQueue)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BAHNCLIP_CLIP_TOLERANCE", "0.05")
	t.Setenv("BAHNCLIP_SERVER_PORT", "9090")

	cfg, err := Load("bahnclip-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Clip.Tolerance != 0.05 {
		t.Errorf("expected tolerance 0.05, got %v", cfg.Clip.Tolerance)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BAHNCLIP_CLIP_TOLERANCE", "-1")

	_, err := Load("bahnclip-test")
	if err == nil || !strings.Contains(err.Error(), "clip.tolerance") {
		t.Fatalf("expected tolerance validation error, got %v", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for empty config")
	}
	for _, want := range []string{"server.port", "database.host", "nats.url", "valkey.addr", "temporal.task_queue"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in error, got %v", want, err)
		}
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{User: "u", Password: "p", Host: "db", Port: 5433, DBName: "clip", SSLMode: "disable"}
	if got := d.DSN(); got != "postgres://u:p@db:5433/clip?sslmode=disable" {
		t.Errorf("unexpected DSN: %s", got)
	}
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Errorf("restore working directory: %v", err)
		}
	})
}
