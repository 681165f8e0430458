package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offenesthueringen/bahnclip/internal/adapters/geojson"
	"github.com/offenesthueringen/bahnclip/internal/pkg/config"
)

const boundaryFixture = `{"type":"FeatureCollection","features":[{"type":"Feature",
"properties":{"GEN":"L"},"geometry":{"type":"Polygon","coordinates":[[
[0,0],[10,0],[10,4],[4,4],[4,10],[0,10],[0,0]]]}}]}`

const sectionsFixture = `{"type":"FeatureCollection","features":[
{"type":"Feature","id":"inside","properties":{},"geometry":{"type":"LineString","coordinates":[[2,2],[3,3]]}},
{"type":"Feature","id":"crosses-bbox","properties":{},"geometry":{"type":"LineString","coordinates":[[5,2],[12,2]]}},
{"type":"Feature","id":"notch","properties":{},"geometry":{"type":"LineString","coordinates":[[7,7],[8,8]]}}]}`

func testConfig(dir string) *config.Config {
	return &config.Config{
		Clip: config.ClipConfig{
			Region:       "Testland",
			OutputDir:    filepath.Join(dir, "out"),
			BoundaryOut:  "simple.js",
			SectionsOut:  "sections.js",
			BoundaryVar:  "Simple",
			SectionsVar:  "Streckenabschnitte",
			Tolerance:    0.01,
			Workers:      2,
			FetchTimeout: 5,
		},
	}
}

func writeFixtures(t *testing.T) (dir, boundary, sections string) {
	t.Helper()
	dir = t.TempDir()
	boundary = filepath.Join(dir, "boundary.geojson")
	sections = filepath.Join(dir, "sections.geojson")
	require.NoError(t, os.WriteFile(boundary, []byte(boundaryFixture), 0o644))
	require.NoError(t, os.WriteFile(sections, []byte(sectionsFixture), 0o644))
	return dir, boundary, sections
}

func TestRun_PrintsSummaryAndWritesScripts(t *testing.T) {
	dir, boundary, sections := writeFixtures(t)
	cfg := testConfig(dir)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, boundary, sections, &out))

	assert.Equal(t, "Testland: 7 => 7\nSections: 3 => 2 => 1\n", out.String())

	script, err := os.ReadFile(filepath.Join(dir, "out", "sections.js"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(script), "var Streckenabschnitte = JSON.parse('"))

	raw, err := geojson.UnwrapScript(script)
	require.NoError(t, err)
	kept, err := geojson.ParseSections(raw)
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Equal(t, "inside", kept[0].ID)

	simple, err := os.ReadFile(filepath.Join(dir, "out", "simple.js"))
	require.NoError(t, err)
	b, err := geojson.ParseBoundary(simple)
	require.NoError(t, err)
	assert.Len(t, b.Ring, 7)
}

func TestRun_MissingInput(t *testing.T) {
	dir, boundary, _ := writeFixtures(t)
	cfg := testConfig(dir)

	err := run(context.Background(), cfg, boundary, filepath.Join(dir, "missing.geojson"), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load sections")
}
