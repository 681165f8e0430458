package geojson

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	orbjson "github.com/paulmach/orb/geojson"

	"github.com/offenesthueringen/bahnclip/internal/core/domain"
)

// WriterConfig names the output files. An empty variable name writes plain
// GeoJSON instead of a script assignment.
type WriterConfig struct {
	Dir          string
	BoundaryFile string
	SectionsFile string
	BoundaryVar  string
	SectionsVar  string
}

// Writer implements ports.ResultWriter on the local filesystem.
type Writer struct {
	cfg WriterConfig
}

// NewWriter creates a Writer.
func NewWriter(cfg WriterConfig) *Writer {
	return &Writer{cfg: cfg}
}

// WriteBoundary writes the boundary as a single-feature FeatureCollection.
func (w *Writer) WriteBoundary(ctx context.Context, boundary *domain.Boundary) error {
	data, err := EncodeBoundary(boundary)
	if err != nil {
		return err
	}
	return w.write(w.cfg.BoundaryFile, w.cfg.BoundaryVar, data)
}

// WriteSections writes the sections as a FeatureCollection of LineStrings.
func (w *Writer) WriteSections(ctx context.Context, sections []domain.Section) error {
	data, err := EncodeSections(sections)
	if err != nil {
		return err
	}
	return w.write(w.cfg.SectionsFile, w.cfg.SectionsVar, data)
}

func (w *Writer) write(name, varName string, data []byte) error {
	if name == "" {
		return fmt.Errorf("output file name is empty")
	}
	if varName != "" {
		data = WrapScript(varName, data)
	}

	path := filepath.Join(w.cfg.Dir, name)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// EncodeBoundary renders boundary as indented GeoJSON.
func EncodeBoundary(boundary *domain.Boundary) ([]byte, error) {
	if boundary == nil {
		return nil, ErrNoBoundary
	}
	f := orbjson.NewFeature(orb.Polygon{orb.Ring(toOrb(boundary.Ring))})
	for k, v := range boundary.Properties {
		f.Properties[k] = v
	}
	fc := orbjson.NewFeatureCollection()
	fc.Append(f)
	return indent(fc)
}

// EncodeSections renders sections as indented GeoJSON, in order.
func EncodeSections(sections []domain.Section) ([]byte, error) {
	fc := orbjson.NewFeatureCollection()
	for _, s := range sections {
		f := orbjson.NewFeature(orb.LineString(toOrb(s.Coordinates)))
		if s.ID != "" {
			f.ID = s.ID
		}
		for k, v := range s.Properties {
			f.Properties[k] = v
		}
		fc.Append(f)
	}
	return indent(fc)
}

func indent(fc *orbjson.FeatureCollection) ([]byte, error) {
	raw, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode geojson: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("indent geojson: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func toOrb(pts []domain.Point) []orb.Point {
	out := make([]orb.Point, len(pts))
	for i, p := range pts {
		out[i] = orb.Point{p.X, p.Y}
	}
	return out
}
