package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/olaizola/maplabel/internal/core/domain"
	"github.com/olaizola/maplabel/internal/core/ports"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// CreateDatasetRequest carries the fields of a new dataset.
type CreateDatasetRequest struct {
	OwnerID     string
	Slug        string
	Name        string
	Description string
	Classes     []string
	DefaultZoom int
}

// DatasetService handles dataset business logic.
type DatasetService struct {
	datasets ports.DatasetRepository
	boxes    ports.BoxRepository
	cache    ports.CacheService
}

// NewDatasetService creates a new DatasetService.
func NewDatasetService(datasets ports.DatasetRepository, boxes ports.BoxRepository, cache ports.CacheService) *DatasetService {
	return &DatasetService{datasets: datasets, boxes: boxes, cache: cache}
}

// Create validates and persists a dataset.
func (s *DatasetService) Create(ctx context.Context, req CreateDatasetRequest) (*domain.Dataset, error) {
	if !slugPattern.MatchString(req.Slug) {
		return nil, fmt.Errorf("slug %q must be lowercase alphanumerics and hyphens", req.Slug)
	}
	if req.Name == "" {
		return nil, fmt.Errorf("name must not be empty")
	}
	if len(req.Classes) == 0 {
		return nil, fmt.Errorf("at least one class is required")
	}
	if req.DefaultZoom < 0 || req.DefaultZoom > 22 {
		return nil, fmt.Errorf("default_zoom must be 0-22, got %d", req.DefaultZoom)
	}

	ds := &domain.Dataset{
		ID:          uuid.NewString(),
		OwnerID:     req.OwnerID,
		Slug:        req.Slug,
		Name:        req.Name,
		Description: req.Description,
		Classes:     req.Classes,
		DefaultZoom: req.DefaultZoom,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.datasets.Create(ctx, ds); err != nil {
		return nil, fmt.Errorf("persist dataset: %w", err)
	}
	return ds, nil
}

// GetByID returns a dataset by UUID.
func (s *DatasetService) GetByID(ctx context.Context, id string) (*domain.Dataset, error) {
	return s.datasets.GetByID(ctx, id)
}

// GetBySlug returns a dataset by slug, cached briefly.
func (s *DatasetService) GetBySlug(ctx context.Context, slug string) (*domain.Dataset, error) {
	cacheKey := "datasets:slug:" + slug
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var ds domain.Dataset
			if err := json.Unmarshal(data, &ds); err == nil {
				return &ds, nil
			}
		}
	}

	ds, err := s.datasets.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(ds); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 300)
		}
	}
	return ds, nil
}

// List returns all datasets.
func (s *DatasetService) List(ctx context.Context) ([]domain.Dataset, error) {
	return s.datasets.List(ctx)
}

// Delete removes a dataset. Only the owner may delete.
func (s *DatasetService) Delete(ctx context.Context, id, requesterID string) error {
	ds, err := s.datasets.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if ds.OwnerID != requesterID {
		return ErrForbidden
	}
	if err := s.datasets.Delete(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, "datasets:slug:"+ds.Slug)
	}
	return nil
}

// DatasetStats summarizes labeling progress.
type DatasetStats struct {
	DatasetID string `json:"dataset_id"`
	BoxCount  int    `json:"box_count"`
	Classes   int    `json:"classes"`
}

// Stats returns labeling progress for a dataset.
func (s *DatasetService) Stats(ctx context.Context, id string) (*DatasetStats, error) {
	ds, err := s.datasets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	_, total, err := s.boxes.ListByDataset(ctx, id, 0, 1)
	if err != nil {
		return nil, err
	}
	return &DatasetStats{DatasetID: ds.ID, BoxCount: total, Classes: len(ds.Classes)}, nil
}
