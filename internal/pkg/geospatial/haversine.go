package geospatial

import (
	"math"

	"github.com/offenesthueringen/bahnclip/internal/core/domain"
)

const earthRadiusKm = 6371.0

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// LineLengthMeters sums the great-circle length of a polyline whose points
// are (longitude, latitude) pairs.
func LineLengthMeters(pts []domain.Point) float64 {
	var total float64
	for i := 1; i < len(pts); i++ {
		total += Haversine(pts[i-1].Y, pts[i-1].X, pts[i].Y, pts[i].X)
	}
	return total
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
