package geojson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/paulmach/orb"
	orbjson "github.com/paulmach/orb/geojson"

	"github.com/offenesthueringen/bahnclip/internal/core/domain"
)

// ErrNoBoundary is returned when the first feature of a boundary source has
// no polygonal geometry.
var ErrNoBoundary = errors.New("no polygon feature found")

// maxDownload caps remote sources at 256 MiB.
const maxDownload = 256 << 20

// Reader implements ports.FeatureSource for GeoJSON files and URLs.
type Reader struct {
	client *http.Client
}

// NewReader creates a Reader. timeout bounds remote downloads.
func NewReader(timeout time.Duration) *Reader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Reader{client: &http.Client{Timeout: timeout}}
}

// LoadBoundary reads location and returns the outer ring of its first feature.
func (r *Reader) LoadBoundary(ctx context.Context, location string) (*domain.Boundary, error) {
	data, err := r.read(ctx, location)
	if err != nil {
		return nil, err
	}
	b, err := ParseBoundary(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", location, err)
	}
	return b, nil
}

// LoadSections reads location and returns one section per line geometry.
func (r *Reader) LoadSections(ctx context.Context, location string) ([]domain.Section, error) {
	data, err := r.read(ctx, location)
	if err != nil {
		return nil, err
	}
	secs, err := ParseSections(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", location, err)
	}
	return secs, nil
}

func (r *Reader) read(ctx context.Context, location string) ([]byte, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		data, err := os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", location, err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", location, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownload))
	if err != nil {
		return nil, fmt.Errorf("read body %s: %w", location, err)
	}
	return data, nil
}

// ParseBoundary decodes a FeatureCollection or a single Feature and returns
// the outer ring of the first feature. For a MultiPolygon the first polygon
// is used. Script-wrapped input is accepted.
func ParseBoundary(data []byte) (*domain.Boundary, error) {
	fc, err := decode(data)
	if err != nil {
		return nil, err
	}
	if len(fc.Features) == 0 || fc.Features[0].Geometry == nil {
		return nil, ErrNoBoundary
	}
	f := fc.Features[0]

	var outer orb.Ring
	switch g := f.Geometry.(type) {
	case orb.Polygon:
		if len(g) > 0 {
			outer = g[0]
		}
	case orb.MultiPolygon:
		if len(g) > 0 && len(g[0]) > 0 {
			outer = g[0][0]
		}
	default:
		return nil, fmt.Errorf("%w: first feature is %s", ErrNoBoundary, f.Geometry.GeoJSONType())
	}
	if len(outer) == 0 {
		return nil, ErrNoBoundary
	}

	return &domain.Boundary{
		Name:       featureName(f),
		Ring:       toPoints(outer),
		Properties: map[string]any(f.Properties),
	}, nil
}

// ParseSections decodes a FeatureCollection of line features. Each LineString
// becomes one section; each part of a MultiLineString becomes its own
// section. Other geometries are skipped.
func ParseSections(data []byte) ([]domain.Section, error) {
	fc, err := decode(data)
	if err != nil {
		return nil, err
	}

	secs := make([]domain.Section, 0, len(fc.Features))
	for _, f := range fc.Features {
		id := featureID(f)
		switch g := f.Geometry.(type) {
		case orb.LineString:
			secs = append(secs, domain.Section{
				ID:          id,
				Coordinates: toPoints(g),
				Properties:  map[string]any(f.Properties),
			})
		case orb.MultiLineString:
			for j, part := range g {
				partID := ""
				if id != "" {
					partID = fmt.Sprintf("%s#%d", id, j)
				}
				secs = append(secs, domain.Section{
					ID:          partID,
					Coordinates: toPoints(part),
					Properties:  map[string]any(f.Properties),
				})
			}
		default:
			typ := "null"
			if f.Geometry != nil {
				typ = f.Geometry.GeoJSONType()
			}
			slog.Debug("skipping non-line feature", "id", id, "type", typ)
		}
	}
	return secs, nil
}

// decode accepts a FeatureCollection or a bare Feature, optionally wrapped as
// script text.
func decode(data []byte) (*orbjson.FeatureCollection, error) {
	data, err := UnwrapScript(data)
	if err != nil {
		return nil, err
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}

	switch head.Type {
	case "FeatureCollection":
		fc, err := orbjson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("decode feature collection: %w", err)
		}
		return fc, nil
	case "Feature":
		f, err := orbjson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("decode feature: %w", err)
		}
		fc := orbjson.NewFeatureCollection()
		fc.Append(f)
		return fc, nil
	default:
		return nil, fmt.Errorf("decode geojson: unsupported type %q", head.Type)
	}
}

func toPoints[T ~[]orb.Point](pts T) []domain.Point {
	out := make([]domain.Point, len(pts))
	for i, p := range pts {
		out[i] = domain.Point{X: p[0], Y: p[1]}
	}
	return out
}

// featureID returns the feature's id member, or "" when it has none.
func featureID(f *orbjson.Feature) string {
	if f.ID == nil {
		return ""
	}
	return fmt.Sprint(f.ID)
}

func featureName(f *orbjson.Feature) string {
	for _, key := range []string{"name", "NAME", "GEN", "NAME_1"} {
		if s, ok := f.Properties[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
