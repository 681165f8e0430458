package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/offenesthueringen/bahnclip/internal/core/domain"
)

// Activity names registered by ClipActivities.
const (
	ActivityRunClip      = "RunClip"
	ActivityWriteOutputs = "WriteOutputs"
	ActivityDeleteRun    = "DeleteRun"
)

// ClipInput is the input for the clip workflow.
type ClipInput struct {
	Region           string
	BoundaryLocation string
	SectionsLocation string
	Tolerance        float64
	BBox             domain.Bounds
}

// WriteInput tells WriteOutputs which run to export.
type WriteInput struct {
	RunID            string
	Region           string
	BoundaryLocation string
	Tolerance        float64
}

// ClipWorkflow loads and clips the inputs, persisting the run, then writes the
// output files. If writing fails the stored run is deleted (saga
// compensation) so no run is left without its outputs.
func ClipWorkflow(ctx workflow.Context, input ClipInput) (*domain.ClipRun, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting clip workflow", "region", input.Region, "tolerance", input.Tolerance)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
			NonRetryableErrorTypes: []string{
				ErrTypeInvalidInput,
			},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: Load, simplify, filter and persist
	var run domain.ClipRun
	if err := workflow.ExecuteActivity(ctx, ActivityRunClip, input).Get(ctx, &run); err != nil {
		return nil, err
	}

	// Step 2: Write the script files
	err := workflow.ExecuteActivity(ctx, ActivityWriteOutputs, WriteInput{
		RunID:            run.ID,
		Region:           run.Region,
		BoundaryLocation: input.BoundaryLocation,
		Tolerance:        input.Tolerance,
	}).Get(ctx, nil)
	if err != nil {
		logger.Warn("writing outputs failed, compensating", "run", run.ID, "error", err)
		// Compensate: delete the stored run
		_ = workflow.ExecuteActivity(ctx, ActivityDeleteRun, run.ID).Get(ctx, nil)
		return nil, err
	}

	logger.Info("Clip finished",
		"run", run.ID,
		"boundary", run.BoundaryPoints, "simplified", run.SimplifiedPoints,
		"total", run.SectionsTotal, "bbox", run.SectionsInBBox, "kept", run.SectionsKept)
	return &run, nil
}
