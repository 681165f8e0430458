package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	"github.com/offenesthueringen/bahnclip/internal/core/domain"
)

// RunRepo implements ports.RunRepository with pgx.
type RunRepo struct {
	db *DB
}

// NewRunRepo creates a new RunRepo.
func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

// Save stores the run and its kept sections in one transaction.
func (r *RunRepo) Save(ctx context.Context, run *domain.ClipRun, kept []domain.Section) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO clip_runs (id, region, tolerance, boundary_points, simplified_points,
		                       sections_total, sections_in_bbox, sections_kept, kept_length_km,
		                       started_at, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, run.ID, run.Region, run.Tolerance, run.BoundaryPoints, run.SimplifiedPoints,
		run.SectionsTotal, run.SectionsInBBox, run.SectionsKept, run.KeptLengthKm,
		run.StartedAt, run.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if len(kept) > 0 {
		batch := &pgx.Batch{}
		for i, s := range kept {
			batch.Queue(`
				INSERT INTO clip_sections (run_id, seq, feature_id, properties, geom)
				VALUES ($1, $2, NULLIF($3, ''), $4, ST_GeogFromText($5))
			`, run.ID, i, s.ID, s.Properties, lineWKT(s.Coordinates))
		}
		br := tx.SendBatch(ctx, batch)
		for range kept {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("batch exec: %w", err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("batch close: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// GetByID returns a run by UUID.
func (r *RunRepo) GetByID(ctx context.Context, id string) (*domain.ClipRun, error) {
	row := r.db.Pool.QueryRow(ctx, `
		SELECT id, region, tolerance, boundary_points, simplified_points,
		       sections_total, sections_in_bbox, sections_kept, kept_length_km,
		       started_at, duration_ms
		FROM clip_runs WHERE id = $1
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRecent returns the newest runs first.
func (r *RunRepo) ListRecent(ctx context.Context, limit int) ([]domain.ClipRun, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, region, tolerance, boundary_points, simplified_points,
		       sections_total, sections_in_bbox, sections_kept, kept_length_km,
		       started_at, duration_ms
		FROM clip_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.ClipRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Sections returns the kept sections of a run in their original order.
func (r *RunRepo) Sections(ctx context.Context, runID string) ([]domain.Section, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT COALESCE(feature_id, ''), properties, ST_AsText(geom::geometry)
		FROM clip_sections
		WHERE run_id = $1
		ORDER BY seq
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var secs []domain.Section
	for rows.Next() {
		var (
			s    domain.Section
			text string
		)
		if err := rows.Scan(&s.ID, &s.Properties, &text); err != nil {
			return nil, err
		}
		if s.Coordinates, err = parseLineWKT(text); err != nil {
			return nil, fmt.Errorf("section %d: %w", len(secs), err)
		}
		secs = append(secs, s)
	}
	return secs, rows.Err()
}

// Delete removes a run; its sections cascade.
func (r *RunRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM clip_runs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanRun(row pgx.Row) (*domain.ClipRun, error) {
	var (
		run        domain.ClipRun
		durationMs int64
	)
	err := row.Scan(
		&run.ID, &run.Region, &run.Tolerance, &run.BoundaryPoints, &run.SimplifiedPoints,
		&run.SectionsTotal, &run.SectionsInBBox, &run.SectionsKept, &run.KeptLengthKm,
		&run.StartedAt, &durationMs,
	)
	if err != nil {
		return nil, err
	}
	run.Duration = time.Duration(durationMs) * time.Millisecond
	return &run, nil
}

// lineWKT renders a section as a WKT LINESTRING. A single-point section is
// stored as a degenerate two-point line.
func lineWKT(pts []domain.Point) string {
	ls := make(orb.LineString, 0, max(len(pts), 2))
	for _, p := range pts {
		ls = append(ls, orb.Point{p.X, p.Y})
	}
	if len(ls) == 1 {
		ls = append(ls, ls[0])
	}
	return wkt.MarshalString(ls)
}

func parseLineWKT(text string) ([]domain.Point, error) {
	g, err := wkt.Unmarshal(text)
	if err != nil {
		return nil, fmt.Errorf("parse wkt: %w", err)
	}
	ls, ok := g.(orb.LineString)
	if !ok {
		return nil, fmt.Errorf("parse wkt: expected LINESTRING, got %s", g.GeoJSONType())
	}
	pts := make([]domain.Point, len(ls))
	for i, p := range ls {
		pts[i] = domain.Point{X: p[0], Y: p[1]}
	}
	return pts, nil
}
