package postgres

import (
	"context"

	"github.com/olaizola/maplabel/internal/core/domain"
)

// ExportRepo implements ports.ExportJobRepository with pgx.
type ExportRepo struct {
	db *DB
}

// NewExportRepo creates a new ExportRepo.
func NewExportRepo(db *DB) *ExportRepo {
	return &ExportRepo{db: db}
}

// Create inserts a pending export job.
func (r *ExportRepo) Create(ctx context.Context, job *domain.ExportJob) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO export_jobs (id, dataset_id, status, requested_at)
		VALUES ($1, $2, $3, $4)
	`, job.ID, job.DatasetID, job.Status, job.RequestedAt)
	return err
}

const exportColumns = `
	id, dataset_id, status, COALESCE(archive_path, ''), box_count,
	COALESCE(error, ''), requested_at, completed_at`

func scanExport(row interface{ Scan(...any) error }) (*domain.ExportJob, error) {
	var j domain.ExportJob
	if err := row.Scan(
		&j.ID, &j.DatasetID, &j.Status, &j.ArchivePath, &j.BoxCount,
		&j.Error, &j.RequestedAt, &j.CompletedAt,
	); err != nil {
		return nil, scanErr(err)
	}
	return &j, nil
}

// GetByID returns an export job by UUID.
func (r *ExportRepo) GetByID(ctx context.Context, id string) (*domain.ExportJob, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+exportColumns+` FROM export_jobs WHERE id = $1`, id)
	return scanExport(row)
}

// SetRunning marks a job as running.
func (r *ExportRepo) SetRunning(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE export_jobs SET status = 'running' WHERE id = $1`, id)
	return err
}

// SetCompleted records the finished archive.
func (r *ExportRepo) SetCompleted(ctx context.Context, id, archivePath string, boxCount int) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE export_jobs
		SET status = 'completed', archive_path = $2, box_count = $3, completed_at = now()
		WHERE id = $1
	`, id, archivePath, boxCount)
	return err
}

// SetFailed records a failure.
func (r *ExportRepo) SetFailed(ctx context.Context, id, errMsg string) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE export_jobs
		SET status = 'failed', error = $2, completed_at = now()
		WHERE id = $1
	`, id, errMsg)
	return err
}

// ListByDataset returns a dataset's export jobs, newest first.
func (r *ExportRepo) ListByDataset(ctx context.Context, datasetID string) ([]domain.ExportJob, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+exportColumns+`
		FROM export_jobs WHERE dataset_id = $1
		ORDER BY requested_at DESC
	`, datasetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.ExportJob
	for rows.Next() {
		j, err := scanExport(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}
