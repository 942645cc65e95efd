package postgres

import (
	"context"

	"github.com/olaizola/maplabel/internal/core/domain"
)

// DatasetRepo implements ports.DatasetRepository with pgx.
type DatasetRepo struct {
	db *DB
}

// NewDatasetRepo creates a new DatasetRepo.
func NewDatasetRepo(db *DB) *DatasetRepo {
	return &DatasetRepo{db: db}
}

// Create inserts a dataset.
func (r *DatasetRepo) Create(ctx context.Context, ds *domain.Dataset) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO datasets (id, owner_id, slug, name, description, classes, default_zoom, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, ds.ID, ds.OwnerID, ds.Slug, ds.Name, ds.Description, ds.Classes, ds.DefaultZoom, ds.CreatedAt)
	return err
}

const datasetColumns = `
	id, owner_id, slug, name, COALESCE(description, ''), classes, default_zoom, created_at`

func scanDataset(row interface{ Scan(...any) error }) (*domain.Dataset, error) {
	var ds domain.Dataset
	if err := row.Scan(
		&ds.ID, &ds.OwnerID, &ds.Slug, &ds.Name, &ds.Description,
		&ds.Classes, &ds.DefaultZoom, &ds.CreatedAt,
	); err != nil {
		return nil, scanErr(err)
	}
	return &ds, nil
}

// GetByID returns a dataset by UUID.
func (r *DatasetRepo) GetByID(ctx context.Context, id string) (*domain.Dataset, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+datasetColumns+` FROM datasets WHERE id = $1`, id)
	return scanDataset(row)
}

// GetBySlug returns a dataset by its URL slug.
func (r *DatasetRepo) GetBySlug(ctx context.Context, slug string) (*domain.Dataset, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+datasetColumns+` FROM datasets WHERE slug = $1`, slug)
	return scanDataset(row)
}

// List returns all datasets ordered by name.
func (r *DatasetRepo) List(ctx context.Context) ([]domain.Dataset, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+datasetColumns+` FROM datasets ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var datasets []domain.Dataset
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, *ds)
	}
	return datasets, rows.Err()
}

// Delete removes a dataset. Boxes cascade at the schema level.
func (r *DatasetRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	return err
}
