package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate applies pending up migrations in file name order and records each
// one in schema_migrations. It returns the names of the applied files.
func Migrate(ctx context.Context, db *DB) ([]string, error) {
	if _, err := db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name       TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	files, err := migrationFiles(".up.sql")
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, name := range files {
		var done bool
		if err := db.Pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)`, name,
		).Scan(&done); err != nil {
			return applied, fmt.Errorf("check %s: %w", name, err)
		}
		if done {
			continue
		}

		data, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return applied, fmt.Errorf("read %s: %w", name, err)
		}

		err = pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(data)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name)
			return err
		})
		if err != nil {
			return applied, fmt.Errorf("exec %s: %w", name, err)
		}

		slog.Info("migration applied", "file", name)
		applied = append(applied, name)
	}
	return applied, nil
}

// Rollback reverts applied migrations that have a down file, newest first.
func Rollback(ctx context.Context, db *DB) ([]string, error) {
	files, err := migrationFiles(".down.sql")
	if err != nil {
		return nil, err
	}

	var reverted []string
	for i := len(files) - 1; i >= 0; i-- {
		down := files[i]
		up := strings.TrimSuffix(down, ".down.sql") + ".up.sql"

		data, err := migrationFS.ReadFile("migrations/" + down)
		if err != nil {
			return reverted, fmt.Errorf("read %s: %w", down, err)
		}

		ran := false
		err = pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
			tag, err := tx.Exec(ctx, `DELETE FROM schema_migrations WHERE name = $1`, up)
			if err != nil || tag.RowsAffected() == 0 {
				return err
			}
			ran = true
			_, err = tx.Exec(ctx, string(data))
			return err
		})
		if err != nil {
			return reverted, fmt.Errorf("exec %s: %w", down, err)
		}
		if !ran {
			continue
		}

		slog.Info("migration reverted", "file", down)
		reverted = append(reverted, down)
	}
	return reverted, nil
}

func migrationFiles(suffix string) ([]string, error) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), suffix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
