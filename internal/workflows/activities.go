package workflows

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/offenesthueringen/bahnclip/internal/core/domain"
	"github.com/offenesthueringen/bahnclip/internal/core/ports"
	"github.com/offenesthueringen/bahnclip/internal/core/usecases"
)

// ErrTypeInvalidInput marks activity failures that retrying cannot fix.
const ErrTypeInvalidInput = "InvalidInput"

// ClipActivities holds the activity implementations for the clip workflow.
type ClipActivities struct {
	Source     ports.FeatureSource
	Writer     ports.ResultWriter
	Simplifier *usecases.SimplifyService
	Clips      *usecases.ClipService
}

// RunClip loads both inputs, runs the clip and returns the stored run.
func (a *ClipActivities) RunClip(ctx context.Context, input ClipInput) (*domain.ClipRun, error) {
	boundary, err := a.Source.LoadBoundary(ctx, input.BoundaryLocation)
	if err != nil {
		return nil, fmt.Errorf("load boundary: %w", err)
	}
	sections, err := a.Source.LoadSections(ctx, input.SectionsLocation)
	if err != nil {
		return nil, fmt.Errorf("load sections: %w", err)
	}
	activity.RecordHeartbeat(ctx, "loaded")

	res, err := a.Clips.Clip(ctx, usecases.ClipRequest{
		Region:    input.Region,
		Boundary:  boundary,
		Sections:  sections,
		Tolerance: input.Tolerance,
		BBox:      input.BBox,
	})
	if err != nil {
		if errors.Is(err, usecases.ErrInvalidTolerance) || errors.Is(err, usecases.ErrEmptyBoundary) {
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidInput, err)
		}
		return nil, fmt.Errorf("clip: %w", err)
	}

	activity.GetLogger(ctx).Info("clip stored", "run", res.Run.ID, "kept", res.Run.SectionsKept)
	return &res.Run, nil
}

// WriteOutputs writes the simplified boundary and the run's kept sections.
// The boundary is simplified again from its source, which hits the cache
// when one is configured.
func (a *ClipActivities) WriteOutputs(ctx context.Context, input WriteInput) error {
	boundary, err := a.Source.LoadBoundary(ctx, input.BoundaryLocation)
	if err != nil {
		return fmt.Errorf("load boundary: %w", err)
	}
	simplified, err := a.Simplifier.Simplify(ctx, boundary, input.Tolerance)
	if err != nil {
		return fmt.Errorf("simplify boundary: %w", err)
	}
	if input.Region != "" {
		simplified.Name = input.Region
	}

	sections, err := a.Clips.RunSections(ctx, input.RunID)
	if err != nil {
		return fmt.Errorf("load run sections: %w", err)
	}

	if err := a.Writer.WriteBoundary(ctx, simplified); err != nil {
		return fmt.Errorf("write boundary: %w", err)
	}
	if err := a.Writer.WriteSections(ctx, sections); err != nil {
		return fmt.Errorf("write sections: %w", err)
	}
	return nil
}

// DeleteRun removes a stored run (saga compensation / rollback). A run that
// is already gone is not an error.
func (a *ClipActivities) DeleteRun(ctx context.Context, runID string) error {
	if err := a.Clips.DeleteRun(ctx, runID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete run %s: %w", runID, err)
	}
	activity.GetLogger(ctx).Info("run deleted (saga compensation)", "run", runID)
	return nil
}
