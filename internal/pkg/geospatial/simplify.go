package geospatial

import "github.com/offenesthueringen/bahnclip/internal/core/domain"

// span is a closed index range [first, last] awaiting reduction.
type span struct {
	first, last int
}

// Simplify reduces points with the Douglas-Peucker algorithm and returns the
// retained points in their original order. The input is never modified.
//
// Sequences shorter than three points are returned as-is. A negative
// tolerance behaves like zero: only points lying exactly on an anchor line
// are dropped.
func Simplify(points []domain.Point, tolerance float64) []domain.Point {
	if len(points) < 3 {
		return points
	}
	idx := SimplifyIndices(points, tolerance)
	out := make([]domain.Point, len(idx))
	for i, k := range idx {
		out[i] = points[k]
	}
	return out
}

// SimplifyIndices is like Simplify but returns the ascending indices of the
// retained points.
//
// The first and last indices are always retained. If the endpoints are
// coordinate-equal (a closed ring), the working last anchor walks backwards to
// the nearest distinct point and is retained as well. If every point is equal
// to the first, only index 0 is returned.
func SimplifyIndices(points []domain.Point, tolerance float64) []int {
	n := len(points)
	if n < 3 {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}

	first, last := 0, n-1
	for last > first && points[first].Equal(points[last]) {
		last--
	}
	if last == first {
		return []int{first}
	}

	keep := make([]bool, n)
	keep[first] = true
	keep[last] = true
	keep[n-1] = true

	stack := []span{{first, last}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		maxDist := 0.0
		farthest := s.first
		a, b := points[s.first], points[s.last]
		for i := s.first + 1; i < s.last; i++ {
			if d := PerpendicularDistance(a, b, points[i]); d > maxDist {
				maxDist = d
				farthest = i
			}
		}

		if maxDist > tolerance && farthest != s.first {
			keep[farthest] = true
			stack = append(stack, span{farthest, s.last}, span{s.first, farthest})
		}
	}

	idx := make([]int, 0, n)
	for i, k := range keep {
		if k {
			idx = append(idx, i)
		}
	}
	return idx
}
