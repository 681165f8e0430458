package geospatial

import "github.com/offenesthueringen/bahnclip/internal/core/domain"

// Contains reports whether q lies inside polygon using the crossing-number
// (even-odd) rule with a horizontal ray.
//
// The implied closing edge from the last vertex back to the first is tested
// first. Points exactly on an edge or vertex may be reported either way.
// An empty polygon contains nothing.
func Contains(polygon []domain.Point, q domain.Point) bool {
	if len(polygon) == 0 {
		return false
	}

	inside := false
	v1 := polygon[len(polygon)-1]
	for _, v0 := range polygon {
		d1 := (q.Y - v0.Y) * (v1.X - v0.X)
		d2 := (q.X - v0.X) * (v1.Y - v0.Y)

		if q.Y < v1.Y {
			// v1 above the ray, v0 on or below it
			if v0.Y <= q.Y && d1 > d2 {
				inside = !inside
			}
		} else if q.Y < v0.Y {
			// v1 on or below the ray, v0 above it
			if d1 < d2 {
				inside = !inside
			}
		}

		v1 = v0
	}
	return inside
}

// ContainsAny reports whether at least one of pts lies inside polygon.
func ContainsAny(polygon []domain.Point, pts []domain.Point) bool {
	for _, p := range pts {
		if Contains(polygon, p) {
			return true
		}
	}
	return false
}
