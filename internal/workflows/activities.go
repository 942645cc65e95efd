package workflows

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/olaizola/maplabel/internal/core/domain"
	"github.com/olaizola/maplabel/internal/core/ports"
	"github.com/olaizola/maplabel/internal/pkg/metrics"
	"github.com/olaizola/maplabel/internal/pkg/yolo"
)

// ExportActivities holds the activity implementations for the dataset
// export workflow.
type ExportActivities struct {
	Boxes    ports.BoxRepository
	Datasets ports.DatasetRepository
	Exports  ports.ExportJobRepository
	Images   ports.ImageStore
	Events   ports.EventPublisher
}

// MarkRunning transitions the job to running and broadcasts the stage.
func (a *ExportActivities) MarkRunning(ctx context.Context, jobID, datasetID string) error {
	if err := a.Exports.SetRunning(ctx, jobID); err != nil {
		return fmt.Errorf("mark running: %w", err)
	}
	a.publishProgress(ctx, jobID, datasetID, "running", 0, 0)
	return nil
}

// WriteArchive packages every ready box of the dataset into one zip:
// classes.txt, images/<box-id>.jpg, labels/<box-id>.txt. Boxes whose
// composite never encoded are skipped rather than failing the export.
func (a *ExportActivities) WriteArchive(ctx context.Context, jobID, datasetID string) (ArchiveResult, error) {
	ds, err := a.Datasets.GetByID(ctx, datasetID)
	if err != nil {
		return ArchiveResult{}, fmt.Errorf("load dataset: %w", err)
	}
	boxes, err := a.Boxes.ListAllByDataset(ctx, datasetID)
	if err != nil {
		return ArchiveResult{}, fmt.Errorf("list boxes: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.Create("classes.txt")
	if err != nil {
		return ArchiveResult{}, err
	}
	if _, err := w.Write([]byte(strings.Join(ds.Classes, "\n") + "\n")); err != nil {
		return ArchiveResult{}, err
	}

	packed := 0
	for i, box := range boxes {
		if box.ImageStatus != domain.ImageStatusReady {
			continue
		}

		data, err := a.Images.Open(ctx, box.ImagePath)
		if err != nil {
			return ArchiveResult{}, fmt.Errorf("open image for box %s: %w", box.ID, err)
		}
		iw, err := zw.Create(fmt.Sprintf("images/%s.jpg", box.ID))
		if err != nil {
			return ArchiveResult{}, err
		}
		if _, err := iw.Write(data); err != nil {
			return ArchiveResult{}, err
		}

		lw, err := zw.Create(fmt.Sprintf("labels/%s.txt", box.ID))
		if err != nil {
			return ArchiveResult{}, err
		}
		if _, err := lw.Write([]byte(yolo.Line(box.ClassID, box.Annotation) + "\n")); err != nil {
			return ArchiveResult{}, err
		}

		packed++
		if packed%25 == 0 {
			a.publishProgress(ctx, jobID, datasetID, "packaging", i+1, len(boxes))
		}
	}

	if err := zw.Close(); err != nil {
		return ArchiveResult{}, fmt.Errorf("finalize archive: %w", err)
	}

	path, err := a.Images.Save(ctx, fmt.Sprintf("exports/%s.zip", jobID), buf.Bytes())
	if err != nil {
		return ArchiveResult{}, fmt.Errorf("store archive: %w", err)
	}
	return ArchiveResult{Path: path, BoxCount: packed}, nil
}

// MarkCompleted records the archive location and broadcasts completion.
func (a *ExportActivities) MarkCompleted(ctx context.Context, jobID, datasetID, path string, boxCount int) error {
	if err := a.Exports.SetCompleted(ctx, jobID, path, boxCount); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	metrics.ExportsCompleted.WithLabelValues("completed").Inc()
	a.publishProgress(ctx, jobID, datasetID, "completed", boxCount, boxCount)
	return nil
}

// MarkFailed records the failure reason and broadcasts it.
func (a *ExportActivities) MarkFailed(ctx context.Context, jobID, datasetID, errMsg string) error {
	if err := a.Exports.SetFailed(ctx, jobID, errMsg); err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	metrics.ExportsCompleted.WithLabelValues("failed").Inc()
	a.publishProgress(ctx, jobID, datasetID, "failed", 0, 0)
	return nil
}

// DeleteArchive removes an orphaned archive (saga compensation / rollback).
func (a *ExportActivities) DeleteArchive(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	if err := a.Images.Delete(ctx, path); err != nil {
		return fmt.Errorf("delete archive %s: %w", path, err)
	}
	return nil
}

func (a *ExportActivities) publishProgress(ctx context.Context, jobID, datasetID, stage string, done, total int) {
	if a.Events == nil {
		return
	}
	_ = a.Events.PublishExportProgress(ctx, &domain.ExportProgress{
		JobID:     jobID,
		DatasetID: datasetID,
		Stage:     stage,
		Done:      done,
		Total:     total,
	})
}
