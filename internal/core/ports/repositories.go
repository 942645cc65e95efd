package ports

import (
	"context"

	"github.com/olaizola/maplabel/internal/core/domain"
)

// UserRepository persists accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// DatasetRepository persists datasets.
type DatasetRepository interface {
	Create(ctx context.Context, ds *domain.Dataset) error
	GetByID(ctx context.Context, id string) (*domain.Dataset, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Dataset, error)
	List(ctx context.Context) ([]domain.Dataset, error)
	Delete(ctx context.Context, id string) error
}

// BoxRepository persists labeled boxes.
type BoxRepository interface {
	Create(ctx context.Context, box *domain.Box) error
	GetByID(ctx context.Context, id string) (*domain.Box, error)
	// ListByDataset returns one page of boxes plus the dataset's total count.
	ListByDataset(ctx context.Context, datasetID string, offset, limit int) ([]domain.Box, int, error)
	// ListAllByDataset returns every box of a dataset, for export packaging.
	ListAllByDataset(ctx context.Context, datasetID string) ([]domain.Box, error)
	Delete(ctx context.Context, id string) error
}

// ExportJobRepository persists dataset export jobs.
type ExportJobRepository interface {
	Create(ctx context.Context, job *domain.ExportJob) error
	GetByID(ctx context.Context, id string) (*domain.ExportJob, error)
	SetRunning(ctx context.Context, id string) error
	SetCompleted(ctx context.Context, id, archivePath string, boxCount int) error
	SetFailed(ctx context.Context, id, errMsg string) error
	ListByDataset(ctx context.Context, datasetID string) ([]domain.ExportJob, error)
}

// ImageStore persists encoded raster artifacts (composites, archives).
type ImageStore interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
	Open(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}
