package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// ExportInput is the input for the dataset export workflow.
type ExportInput struct {
	JobID     string
	DatasetID string
}

// ArchiveResult is returned by the WriteArchive activity.
type ArchiveResult struct {
	Path     string
	BoxCount int
}

// DatasetExportWorkflow packages a dataset into a YOLO training archive:
// mark the job running, write the zip, mark it complete. If the archive
// cannot be finalized the partial file is deleted and the job marked
// failed (saga compensation).
func DatasetExportWorkflow(ctx workflow.Context, input ExportInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting dataset export workflow", "jobID", input.JobID, "datasetID", input.DatasetID)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: Mark the job running
	if err := workflow.ExecuteActivity(ctx, "MarkRunning", input.JobID, input.DatasetID).Get(ctx, nil); err != nil {
		return err
	}

	// Step 2: Write the archive
	var archive ArchiveResult
	err := workflow.ExecuteActivity(ctx, "WriteArchive", input.JobID, input.DatasetID).Get(ctx, &archive)
	if err != nil {
		_ = workflow.ExecuteActivity(ctx, "MarkFailed", input.JobID, input.DatasetID, err.Error()).Get(ctx, nil)
		return err
	}

	// Step 3: Mark the job complete
	err = workflow.ExecuteActivity(ctx, "MarkCompleted", input.JobID, input.DatasetID, archive.Path, archive.BoxCount).Get(ctx, nil)
	if err != nil {
		logger.Warn("completion failed, removing archive", "error", err)
		// Compensate: delete the orphaned archive
		_ = workflow.ExecuteActivity(ctx, "DeleteArchive", archive.Path).Get(ctx, nil)
		_ = workflow.ExecuteActivity(ctx, "MarkFailed", input.JobID, input.DatasetID, err.Error()).Get(ctx, nil)
		return err
	}

	logger.Info("Dataset export finished", "path", archive.Path, "boxes", archive.BoxCount)
	return nil
}
