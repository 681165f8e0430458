package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/offenesthueringen/bahnclip/internal/core/domain"
	"github.com/offenesthueringen/bahnclip/internal/core/ports"
	"github.com/offenesthueringen/bahnclip/internal/pkg/geospatial"
	"github.com/offenesthueringen/bahnclip/internal/pkg/metrics"
	"github.com/offenesthueringen/bahnclip/internal/pkg/telemetry"
)

// simplifyCacheTTL is how long a simplified ring stays cached, in seconds.
const simplifyCacheTTL = 3600

// SimplifyService reduces boundary rings with Douglas-Peucker.
type SimplifyService struct {
	cache     ports.CacheService
	publisher ports.EventPublisher
}

// NewSimplifyService creates a new SimplifyService. cache and publisher may be nil.
func NewSimplifyService(cache ports.CacheService, publisher ports.EventPublisher) *SimplifyService {
	return &SimplifyService{cache: cache, publisher: publisher}
}

// ValidateTolerance rejects negative, NaN and infinite tolerances.
func ValidateTolerance(tolerance float64) error {
	if math.IsNaN(tolerance) || math.IsInf(tolerance, 0) || tolerance < 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidTolerance, tolerance)
	}
	return nil
}

// Simplify returns a copy of boundary whose ring has been reduced with the
// given tolerance. Properties are shared with the input.
func (s *SimplifyService) Simplify(ctx context.Context, boundary *domain.Boundary, tolerance float64) (*domain.Boundary, error) {
	if err := ValidateTolerance(tolerance); err != nil {
		return nil, err
	}
	if boundary == nil || len(boundary.Ring) < 3 {
		return nil, ErrEmptyBoundary
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanSimplify)
	defer span.End()
	span.SetAttributes(
		attribute.String(telemetry.AttrRegion, boundary.Name),
		attribute.Float64(telemetry.AttrTolerance, tolerance),
		attribute.Int(telemetry.AttrPointsIn, len(boundary.Ring)),
	)

	ring, err := s.simplifyRing(ctx, boundary.Ring, tolerance)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int(telemetry.AttrPointsOut, len(ring)))

	metrics.BoundaryPoints.WithLabelValues(boundary.Name, "before").Set(float64(len(boundary.Ring)))
	metrics.BoundaryPoints.WithLabelValues(boundary.Name, "after").Set(float64(len(ring)))

	if s.publisher != nil {
		_ = s.publisher.PublishBoundarySimplified(ctx, boundary.Name, len(boundary.Ring), len(ring))
	}

	return &domain.Boundary{
		Name:       boundary.Name,
		Ring:       ring,
		Properties: boundary.Properties,
	}, nil
}

func (s *SimplifyService) simplifyRing(ctx context.Context, ring []domain.Point, tolerance float64) ([]domain.Point, error) {
	// Try cache
	cacheKey := "simplify:" + ringKey(ring, tolerance)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var cached []domain.Point
			if err := json.Unmarshal(data, &cached); err == nil {
				metrics.CacheHits.WithLabelValues("simplify").Inc()
				return cached, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("simplify").Inc()
	}

	start := time.Now()
	out := geospatial.Simplify(ring, tolerance)
	metrics.SimplifyDuration.Observe(time.Since(start).Seconds())

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// Same input always yields the same ring, so a long TTL is fine.
	if s.cache != nil {
		if data, err := json.Marshal(out); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, simplifyCacheTTL)
		}
	}

	return out, nil
}

// ringKey hashes the exact bit patterns of every coordinate and the tolerance.
func ringKey(ring []domain.Point, tolerance float64) string {
	h := sha256.New()
	writeFloat(h, tolerance)
	for _, p := range ring {
		writeFloat(h, p.X)
		writeFloat(h, p.Y)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeFloat(h hash.Hash, f float64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
	h.Write(buf[:])
}
