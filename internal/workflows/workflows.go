package workflows

import (
	"time"

	"paperxray/internal/activities"
	"paperxray/internal/models"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// AnalysisWorkflowID is deterministic per (paper, lang). Temporal rejects a
// second run while one is active, which is what keeps each result down to a
// single concurrent writer no matter how often analysis is requested.
func AnalysisWorkflowID(paperID, lang string) string {
	return "analysis-" + paperID + "-" + lang
}

// AnalysisWorkflow drives one result through pending -> running -> done|error.
// Generation failures are converted into the terminal error status and the
// workflow still completes: a broken analysis must never surface to a caller.
func AnalysisWorkflow(ctx workflow.Context, input AnalysisInput) (string, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var target activities.LoadAnalysisTargetOutput
	if err := workflow.ExecuteActivity(ctx, "LoadAnalysisTargetActivity", activities.LoadAnalysisTargetInput{
		PaperID: input.PaperID,
		Lang:    input.Lang,
	}).Get(ctx, &target); err != nil {
		return "", err
	}
	if !target.Found {
		return "skipped", nil
	}

	if err := workflow.ExecuteActivity(ctx, "SetResultStatusActivity", activities.SetResultStatusInput{
		ResultID: target.ResultID,
		Status:   models.StatusRunning,
	}).Get(ctx, nil); err != nil {
		return "", err
	}

	// Content appends are not idempotent, so generation gets exactly one
	// attempt; retrying a partial run would duplicate already-appended text.
	genCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})
	var genOut activities.RunGenerationOutput
	if err := workflow.ExecuteActivity(genCtx, "RunGenerationActivity", activities.RunGenerationInput{
		ResultID: target.ResultID,
		PaperID:  input.PaperID,
		Lang:     input.Lang,
	}).Get(ctx, &genOut); err != nil {
		_ = workflow.ExecuteActivity(ctx, "SetResultStatusActivity", activities.SetResultStatusInput{
			ResultID: target.ResultID,
			Status:   models.StatusError,
		}).Get(ctx, nil)
		return models.StatusError, nil
	}

	if err := workflow.ExecuteActivity(ctx, "SetResultStatusActivity", activities.SetResultStatusInput{
		ResultID: target.ResultID,
		Status:   models.StatusDone,
	}).Get(ctx, nil); err != nil {
		return "", err
	}
	return models.StatusDone, nil
}
