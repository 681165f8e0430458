package usecases

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/offenesthueringen/bahnclip/internal/core/domain"
	"github.com/offenesthueringen/bahnclip/internal/core/ports"
	"github.com/offenesthueringen/bahnclip/internal/pkg/geospatial"
	"github.com/offenesthueringen/bahnclip/internal/pkg/metrics"
	"github.com/offenesthueringen/bahnclip/internal/pkg/telemetry"
)

// containChunk is the number of sections tested per worker task.
const containChunk = 64

// ClipRequest describes one simplify-and-filter pass.
type ClipRequest struct {
	Region    string
	Boundary  *domain.Boundary
	Sections  []domain.Section
	Tolerance float64
	// BBox pre-filters sections; the zero box means the bounds of the
	// unsimplified boundary ring.
	BBox domain.Bounds
}

// ClipService clips rail sections to a simplified region boundary.
type ClipService struct {
	simplifier *SimplifyService
	runs       ports.RunRepository
	publisher  ports.EventPublisher
	workers    int
	now        func() time.Time
}

// NewClipService creates a new ClipService. runs and publisher may be nil;
// workers <= 0 uses GOMAXPROCS.
func NewClipService(
	simplifier *SimplifyService,
	runs ports.RunRepository,
	publisher ports.EventPublisher,
	workers int,
) *ClipService {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &ClipService{
		simplifier: simplifier,
		runs:       runs,
		publisher:  publisher,
		workers:    workers,
		now:        time.Now,
	}
}

// Clip simplifies the boundary, drops every section that is not strictly
// inside the bounding box, then keeps the sections with at least one
// coordinate inside the simplified boundary. Kept sections are returned in
// input order.
func (s *ClipService) Clip(ctx context.Context, req ClipRequest) (*domain.ClipResult, error) {
	if req.Boundary == nil || len(req.Boundary.Ring) < 3 {
		return nil, ErrEmptyBoundary
	}
	region := req.Region
	if region == "" {
		region = req.Boundary.Name
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanClip)
	defer span.End()
	span.SetAttributes(
		attribute.String(telemetry.AttrRegion, region),
		attribute.Int(telemetry.AttrSections, len(req.Sections)),
	)

	start := s.now()

	simplified, err := s.simplifier.Simplify(ctx, req.Boundary, req.Tolerance)
	if err != nil {
		metrics.ClipRunsTotal.WithLabelValues(region, "error").Inc()
		return nil, fmt.Errorf("simplify boundary: %w", err)
	}
	simplified.Name = region

	bbox := req.BBox
	if bbox.IsZero() {
		bbox = domain.BoundsOf(req.Boundary.Ring)
	}

	inBBox := make([]domain.Section, 0, len(req.Sections))
	for _, sec := range req.Sections {
		if bbox.ContainsAllStrict(sec.Coordinates) {
			inBBox = append(inBBox, sec)
		}
	}

	kept, err := s.filterInside(ctx, simplified.Ring, inBBox)
	if err != nil {
		metrics.ClipRunsTotal.WithLabelValues(region, "error").Inc()
		return nil, fmt.Errorf("filter sections: %w", err)
	}
	span.SetAttributes(attribute.Int(telemetry.AttrKept, len(kept)))

	var keptMeters float64
	for _, sec := range kept {
		keptMeters += geospatial.LineLengthMeters(sec.Coordinates)
	}

	run := domain.ClipRun{
		ID:               uuid.NewString(),
		Region:           region,
		Tolerance:        req.Tolerance,
		BoundaryPoints:   len(req.Boundary.Ring),
		SimplifiedPoints: len(simplified.Ring),
		SectionsTotal:    len(req.Sections),
		SectionsInBBox:   len(inBBox),
		SectionsKept:     len(kept),
		KeptLengthKm:     keptMeters / 1000,
		StartedAt:        start,
		Duration:         s.now().Sub(start),
	}

	if s.runs != nil {
		if err := s.runs.Save(ctx, &run, kept); err != nil {
			metrics.ClipRunsTotal.WithLabelValues(region, "error").Inc()
			return nil, fmt.Errorf("save run: %w", err)
		}
	}
	if s.publisher != nil {
		_ = s.publisher.PublishRunCompleted(ctx, &run)
	}

	metrics.ClipRunsTotal.WithLabelValues(region, "ok").Inc()
	metrics.ClipDuration.WithLabelValues(region).Observe(run.Duration.Seconds())
	metrics.SectionsCount.WithLabelValues(region, "total").Set(float64(run.SectionsTotal))
	metrics.SectionsCount.WithLabelValues(region, "bbox").Set(float64(run.SectionsInBBox))
	metrics.SectionsCount.WithLabelValues(region, "kept").Set(float64(run.SectionsKept))

	return &domain.ClipResult{
		Run:        run,
		Simplified: *simplified,
		Kept:       kept,
	}, nil
}

// filterInside keeps the sections with any coordinate inside polygon. Chunks
// are tested concurrently; the result preserves input order.
func (s *ClipService) filterInside(ctx context.Context, polygon []domain.Point, sections []domain.Section) ([]domain.Section, error) {
	_, span := telemetry.Tracer().Start(ctx, telemetry.SpanFilter)
	defer span.End()

	inside := make([]bool, len(sections))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for lo := 0; lo < len(sections); lo += containChunk {
		lo := lo
		hi := min(lo+containChunk, len(sections))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := lo; i < hi; i++ {
				inside[i] = geospatial.ContainsAny(polygon, sections[i].Coordinates)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	kept := make([]domain.Section, 0, len(sections))
	for i, ok := range inside {
		if ok {
			kept = append(kept, sections[i])
		}
	}
	return kept, nil
}

// Contains reports for each point whether it lies inside the boundary. A
// positive tolerance simplifies the boundary first.
func (s *ClipService) Contains(ctx context.Context, boundary *domain.Boundary, tolerance float64, points []domain.Point) ([]bool, error) {
	if boundary == nil || len(boundary.Ring) < 3 {
		return nil, ErrEmptyBoundary
	}
	if err := ValidateTolerance(tolerance); err != nil {
		return nil, err
	}

	ring := boundary.Ring
	if tolerance > 0 {
		simplified, err := s.simplifier.Simplify(ctx, boundary, tolerance)
		if err != nil {
			return nil, err
		}
		ring = simplified.Ring
	}

	out := make([]bool, len(points))
	for i, p := range points {
		out[i] = geospatial.Contains(ring, p)
	}
	return out, nil
}

// GetRun returns a stored run by ID.
func (s *ClipService) GetRun(ctx context.Context, id string) (*domain.ClipRun, error) {
	if s.runs == nil {
		return nil, ErrNoRunHistory
	}
	if id == "" {
		return nil, fmt.Errorf("run id must not be empty")
	}
	return s.runs.GetByID(ctx, id)
}

// ListRuns returns the most recent runs, newest first.
func (s *ClipService) ListRuns(ctx context.Context, limit int) ([]domain.ClipRun, error) {
	if s.runs == nil {
		return nil, ErrNoRunHistory
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.runs.ListRecent(ctx, limit)
}

// RunSections returns the sections kept by a stored run, in their original order.
func (s *ClipService) RunSections(ctx context.Context, id string) ([]domain.Section, error) {
	if s.runs == nil {
		return nil, ErrNoRunHistory
	}
	if _, err := s.runs.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.runs.Sections(ctx, id)
}

// DeleteRun removes a stored run and its sections.
func (s *ClipService) DeleteRun(ctx context.Context, id string) error {
	if s.runs == nil {
		return ErrNoRunHistory
	}
	return s.runs.Delete(ctx, id)
}
