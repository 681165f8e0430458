package usecases

import "errors"

var (
	// ErrInvalidTolerance is returned for a negative or non-finite tolerance.
	ErrInvalidTolerance = errors.New("tolerance must be a finite, non-negative number")
	// ErrEmptyBoundary is returned when a boundary ring has fewer than three points.
	ErrEmptyBoundary = errors.New("boundary ring needs at least three points")
)

// ErrNoRunHistory is returned by run queries when no repository is configured.
var ErrNoRunHistory = errors.New("run history is not configured")
