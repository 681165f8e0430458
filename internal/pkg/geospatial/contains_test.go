package geospatial

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/offenesthueringen/bahnclip/internal/core/domain"
)

func TestContains_Square(t *testing.T) {
	square := pts(0, 0, 0, 10, 10, 10, 10, 0)

	assert.True(t, Contains(square, domain.Point{X: 5, Y: 5}))
	assert.False(t, Contains(square, domain.Point{X: 15, Y: 5}))
	assert.False(t, Contains(square, domain.Point{X: 5, Y: -1}))
	assert.False(t, Contains(square, domain.Point{X: 5, Y: 11}))
}

func TestContains_ConcaveNotch(t *testing.T) {
	lShape := pts(0, 0, 10, 0, 10, 4, 4, 4, 4, 10, 0, 10)

	tests := []struct {
		name string
		q    domain.Point
		want bool
	}{
		{"upper arm", domain.Point{X: 2, Y: 8}, true},
		{"lower arm", domain.Point{X: 8, Y: 2}, true},
		{"corner", domain.Point{X: 2, Y: 2}, true},
		{"notch", domain.Point{X: 7, Y: 7}, false},
		{"notch corner", domain.Point{X: 9, Y: 9}, false},
		{"right of bbox", domain.Point{X: 11, Y: 2}, false},
		{"left of bbox", domain.Point{X: -1, Y: 5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Contains(lShape, tt.q))
		})
	}
}

func TestContains_OrientationAndClosure(t *testing.T) {
	lShape := pts(0, 0, 10, 0, 10, 4, 4, 4, 4, 10, 0, 10)

	reversed := make([]domain.Point, len(lShape))
	for i, p := range lShape {
		reversed[len(lShape)-1-i] = p
	}
	closed := append(append([]domain.Point(nil), lShape...), lShape[0])

	for _, poly := range [][]domain.Point{reversed, closed} {
		assert.True(t, Contains(poly, domain.Point{X: 2, Y: 8}))
		assert.True(t, Contains(poly, domain.Point{X: 8, Y: 2}))
		assert.False(t, Contains(poly, domain.Point{X: 7, Y: 7}))
	}
}

func TestContains_EmptyPolygon(t *testing.T) {
	assert.False(t, Contains(nil, domain.Point{}))
	assert.False(t, Contains([]domain.Point{}, domain.Point{X: 1, Y: 1}))
}

func TestContainsAny(t *testing.T) {
	square := pts(0, 0, 0, 10, 10, 10, 10, 0)

	assert.True(t, ContainsAny(square, pts(20, 20, 5, 5, 30, 30)))
	assert.False(t, ContainsAny(square, pts(20, 20, -5, 5)))
	assert.False(t, ContainsAny(square, nil))
}

func TestLineLengthMeters(t *testing.T) {
	// one degree of latitude is roughly 111.2 km
	line := pts(11.0, 50.0, 11.0, 51.0)
	assert.InDelta(t, 111195, LineLengthMeters(line), 50)
	assert.Zero(t, LineLengthMeters(pts(11, 50)))
}
