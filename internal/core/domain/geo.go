package domain

// Point is a planar coordinate pair. For geographic data X is the longitude
// and Y the latitude (GeoJSON axis order).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Equal reports exact floating-point equality on both components.
func (p Point) Equal(o Point) bool {
	return p.X == o.X && p.Y == o.Y
}

// Polyline is an ordered sequence of points.
type Polyline = []Point

// Polygon is an ordered ring of points. The closing edge from the last point
// back to the first is implied; repeating the first point is allowed.
type Polygon = []Point

// Bounds represents an axis-aligned bounding box.
type Bounds struct {
	MinX float64 `json:"min_x" mapstructure:"min_x"`
	MinY float64 `json:"min_y" mapstructure:"min_y"`
	MaxX float64 `json:"max_x" mapstructure:"max_x"`
	MaxY float64 `json:"max_y" mapstructure:"max_y"`
}

// IsZero reports whether b is the zero box.
func (b Bounds) IsZero() bool {
	return b == Bounds{}
}

// ContainsStrict reports whether p lies strictly inside b (points on the
// border are outside).
func (b Bounds) ContainsStrict(p Point) bool {
	return b.MinX < p.X && p.X < b.MaxX && b.MinY < p.Y && p.Y < b.MaxY
}

// ContainsAllStrict reports whether every point lies strictly inside b.
// An empty sequence is not contained.
func (b Bounds) ContainsAllStrict(pts []Point) bool {
	if len(pts) == 0 {
		return false
	}
	for _, p := range pts {
		if !b.ContainsStrict(p) {
			return false
		}
	}
	return true
}

// BoundsOf returns the smallest box enclosing pts. The zero box is returned
// for an empty sequence.
func BoundsOf(pts []Point) Bounds {
	if len(pts) == 0 {
		return Bounds{}
	}
	b := Bounds{MinX: pts[0].X, MinY: pts[0].Y, MaxX: pts[0].X, MaxY: pts[0].Y}
	for _, p := range pts[1:] {
		if p.X < b.MinX {
			b.MinX = p.X
		}
		if p.Y < b.MinY {
			b.MinY = p.Y
		}
		if p.X > b.MaxX {
			b.MaxX = p.X
		}
		if p.Y > b.MaxY {
			b.MaxY = p.Y
		}
	}
	return b
}
