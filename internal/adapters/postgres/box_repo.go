package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/olaizola/maplabel/internal/core/domain"
)

// BoxRepo implements ports.BoxRepository with pgx. Tile grid and annotation
// are stored as JSONB; geographic bounds as four numeric columns so they
// stay queryable.
type BoxRepo struct {
	db *DB
}

// NewBoxRepo creates a new BoxRepo.
func NewBoxRepo(db *DB) *BoxRepo {
	return &BoxRepo{db: db}
}

// Create inserts a box.
func (r *BoxRepo) Create(ctx context.Context, b *domain.Box) error {
	grid, err := json.Marshal(b.Grid)
	if err != nil {
		return fmt.Errorf("marshal grid: %w", err)
	}
	ann, err := json.Marshal(b.Annotation)
	if err != nil {
		return fmt.Errorf("marshal annotation: %w", err)
	}

	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO boxes (id, dataset_id, owner_id, class_id, label,
		                   south, west, north, east, zoom,
		                   grid, annotation, image_path, image_status,
		                   image_width, image_height, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`, b.ID, b.DatasetID, b.OwnerID, b.ClassID, b.Label,
		b.Bounds.South, b.Bounds.West, b.Bounds.North, b.Bounds.East, b.Zoom,
		grid, ann, b.ImagePath, string(b.ImageStatus),
		b.ImageWidth, b.ImageHeight, b.CreatedAt)
	return err
}

const boxColumns = `
	id, dataset_id, owner_id, class_id, COALESCE(label, ''),
	south, west, north, east, zoom,
	grid, annotation, COALESCE(image_path, ''), image_status,
	image_width, image_height, created_at`

func scanBox(row interface{ Scan(...any) error }) (*domain.Box, error) {
	var b domain.Box
	var grid, ann []byte
	var status string
	if err := row.Scan(
		&b.ID, &b.DatasetID, &b.OwnerID, &b.ClassID, &b.Label,
		&b.Bounds.South, &b.Bounds.West, &b.Bounds.North, &b.Bounds.East, &b.Zoom,
		&grid, &ann, &b.ImagePath, &status,
		&b.ImageWidth, &b.ImageHeight, &b.CreatedAt,
	); err != nil {
		return nil, scanErr(err)
	}
	if err := json.Unmarshal(grid, &b.Grid); err != nil {
		return nil, fmt.Errorf("unmarshal grid: %w", err)
	}
	if err := json.Unmarshal(ann, &b.Annotation); err != nil {
		return nil, fmt.Errorf("unmarshal annotation: %w", err)
	}
	b.ImageStatus = domain.ImageStatus(status)
	return &b, nil
}

// GetByID returns a box by UUID.
func (r *BoxRepo) GetByID(ctx context.Context, id string) (*domain.Box, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+boxColumns+` FROM boxes WHERE id = $1`, id)
	return scanBox(row)
}

// ListByDataset returns one page of a dataset's boxes, newest first, plus
// the total count for pagination headers.
func (r *BoxRepo) ListByDataset(ctx context.Context, datasetID string, offset, limit int) ([]domain.Box, int, error) {
	var total int
	if err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM boxes WHERE dataset_id = $1`, datasetID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+boxColumns+`
		FROM boxes WHERE dataset_id = $1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3
	`, datasetID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var boxes []domain.Box
	for rows.Next() {
		b, err := scanBox(rows)
		if err != nil {
			return nil, 0, err
		}
		boxes = append(boxes, *b)
	}
	return boxes, total, rows.Err()
}

// ListAllByDataset returns every box of a dataset, oldest first, for export
// packaging.
func (r *BoxRepo) ListAllByDataset(ctx context.Context, datasetID string) ([]domain.Box, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+boxColumns+`
		FROM boxes WHERE dataset_id = $1
		ORDER BY created_at ASC
	`, datasetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var boxes []domain.Box
	for rows.Next() {
		b, err := scanBox(rows)
		if err != nil {
			return nil, err
		}
		boxes = append(boxes, *b)
	}
	return boxes, rows.Err()
}

// Delete removes a box.
func (r *BoxRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM boxes WHERE id = $1`, id)
	return err
}
