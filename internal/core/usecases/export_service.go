package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/olaizola/maplabel/internal/core/domain"
	"github.com/olaizola/maplabel/internal/core/ports"
)

// ExportService creates export jobs and hands them to the exporter over the
// message broker. The heavy packaging work runs out of process.
type ExportService struct {
	exports  ports.ExportJobRepository
	datasets ports.DatasetRepository
	events   ports.EventPublisher
}

// NewExportService creates a new ExportService.
func NewExportService(exports ports.ExportJobRepository, datasets ports.DatasetRepository, events ports.EventPublisher) *ExportService {
	return &ExportService{exports: exports, datasets: datasets, events: events}
}

// Trigger records a pending export job and publishes the request.
func (s *ExportService) Trigger(ctx context.Context, datasetID string) (*domain.ExportJob, error) {
	if _, err := s.datasets.GetByID(ctx, datasetID); err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	job := &domain.ExportJob{
		ID:          uuid.NewString(),
		DatasetID:   datasetID,
		Status:      "pending",
		RequestedAt: time.Now().UTC(),
	}
	if err := s.exports.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("persist export job: %w", err)
	}
	// Unlike box broadcasts, losing this publish means the job never runs,
	// so the failure surfaces to the caller.
	if s.events == nil {
		return nil, fmt.Errorf("publish export request: broker unavailable")
	}
	if err := s.events.PublishExportRequested(ctx, job); err != nil {
		return nil, fmt.Errorf("publish export request: %w", err)
	}
	return job, nil
}

// GetByID returns one export job.
func (s *ExportService) GetByID(ctx context.Context, id string) (*domain.ExportJob, error) {
	return s.exports.GetByID(ctx, id)
}

// ListByDataset returns a dataset's export history.
func (s *ExportService) ListByDataset(ctx context.Context, datasetID string) ([]domain.ExportJob, error) {
	return s.exports.ListByDataset(ctx, datasetID)
}
