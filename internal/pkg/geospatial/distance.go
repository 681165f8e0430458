package geospatial

import (
	"math"

	"github.com/offenesthueringen/bahnclip/internal/core/domain"
)

// PerpendicularDistance returns the distance from p to the line through a and b.
//
// The numerator is twice the area of the triangle (a, b, p) by the shoelace
// formula, the denominator is the length of the base ab, so the quotient is the
// triangle's height. a and b must not be coordinate-equal; callers guarantee
// that by anchoring on distinct endpoints.
func PerpendicularDistance(a, b, p domain.Point) float64 {
	area2 := math.Abs(a.X*b.Y + b.X*p.Y + p.X*a.Y - b.X*a.Y - p.X*b.Y - a.X*p.Y)
	base := math.Sqrt((a.X-b.X)*(a.X-b.X) + (a.Y-b.Y)*(a.Y-b.Y))
	return area2 / base
}
