package domain

import (
	"time"
)

// Boundary is a region outline (e.g. a federal state) given as a single ring.
type Boundary struct {
	Name       string         `json:"name"`
	Ring       []Point        `json:"ring"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Section is one line feature of the connectivity dataset: a stretch of
// track together with its measurement properties (per-carrier stability etc.).
type Section struct {
	ID          string         `json:"id,omitempty"`
	Coordinates []Point        `json:"coordinates"`
	Properties  map[string]any `json:"properties,omitempty"`
}

// ClipRun records the outcome of one simplify-and-filter pass.
type ClipRun struct {
	ID               string        `json:"id"`
	Region           string        `json:"region"`
	Tolerance        float64       `json:"tolerance"`
	BoundaryPoints   int           `json:"boundary_points"`
	SimplifiedPoints int           `json:"simplified_points"`
	SectionsTotal    int           `json:"sections_total"`
	SectionsInBBox   int           `json:"sections_in_bbox"`
	SectionsKept     int           `json:"sections_kept"`
	KeptLengthKm     float64       `json:"kept_length_km"`
	StartedAt        time.Time     `json:"started_at"`
	Duration         time.Duration `json:"duration"`
}

// ClipResult is the full output of a clip: run statistics, the simplified
// boundary and the sections that fall inside it, in input order.
type ClipResult struct {
	Run        ClipRun   `json:"run"`
	Simplified Boundary  `json:"simplified"`
	Kept       []Section `json:"kept"`
}
