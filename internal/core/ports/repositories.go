package ports

import (
	"context"

	"github.com/offenesthueringen/bahnclip/internal/core/domain"
)

// FeatureSource loads input geometry. A location is a file path or an
// http(s) URL.
type FeatureSource interface {
	LoadBoundary(ctx context.Context, location string) (*domain.Boundary, error)
	LoadSections(ctx context.Context, location string) ([]domain.Section, error)
}

// ResultWriter persists clip outputs in their target format.
type ResultWriter interface {
	WriteBoundary(ctx context.Context, boundary *domain.Boundary) error
	WriteSections(ctx context.Context, sections []domain.Section) error
}

// RunRepository persists clip runs and the sections they kept.
type RunRepository interface {
	Save(ctx context.Context, run *domain.ClipRun, kept []domain.Section) error
	GetByID(ctx context.Context, id string) (*domain.ClipRun, error)
	ListRecent(ctx context.Context, limit int) ([]domain.ClipRun, error)
	Sections(ctx context.Context, runID string) ([]domain.Section, error)
	Delete(ctx context.Context, id string) error
}
