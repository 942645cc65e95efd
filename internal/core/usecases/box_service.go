package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/olaizola/maplabel/internal/core/composite"
	"github.com/olaizola/maplabel/internal/core/domain"
	"github.com/olaizola/maplabel/internal/core/ports"
	"github.com/olaizola/maplabel/internal/pkg/yolo"
)

// ErrForbidden is returned when a caller does not own the resource it is
// mutating.
var ErrForbidden = fmt.Errorf("forbidden")

// ErrInvalidInput marks failures caused by the request itself, so the
// transport layer can separate them from infrastructure faults.
var ErrInvalidInput = fmt.Errorf("invalid input")

// CreateBoxRequest carries everything needed to label one geographic box.
type CreateBoxRequest struct {
	DatasetID string
	OwnerID   string
	ClassID   int
	Label     string
	Bounds    domain.GeoBounds
	Zoom      int
}

// BoxService runs the labeling pipeline: render the composite for a
// geographic box, persist the image and annotation, broadcast the event.
// Both the authenticated and the public read surfaces compose this one
// service; the rendering engine is never duplicated.
type BoxService struct {
	boxes    ports.BoxRepository
	datasets ports.DatasetRepository
	images   ports.ImageStore
	events   ports.EventPublisher
	cache    ports.CacheService
	engine   *composite.Engine
}

// NewBoxService creates a new BoxService.
func NewBoxService(
	boxes ports.BoxRepository,
	datasets ports.DatasetRepository,
	images ports.ImageStore,
	events ports.EventPublisher,
	cache ports.CacheService,
	engine *composite.Engine,
) *BoxService {
	return &BoxService{
		boxes:    boxes,
		datasets: datasets,
		images:   images,
		events:   events,
		cache:    cache,
		engine:   engine,
	}
}

// Create renders and persists one labeled box. A failed JPEG encode still
// persists the box with its annotation and image_status "unavailable";
// invalid bounds or an oversized tile grid fail the whole request.
func (s *BoxService) Create(ctx context.Context, req CreateBoxRequest) (*domain.Box, error) {
	ds, err := s.datasets.GetByID(ctx, req.DatasetID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown dataset %s", ErrInvalidInput, req.DatasetID)
		}
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	if req.ClassID < 0 || req.ClassID >= len(ds.Classes) {
		return nil, fmt.Errorf("%w: class_id %d outside dataset class list (%d classes)", ErrInvalidInput, req.ClassID, len(ds.Classes))
	}

	res, err := s.engine.Render(ctx, req.Bounds, req.Zoom)
	if err != nil {
		return nil, err
	}

	box := &domain.Box{
		ID:         uuid.NewString(),
		DatasetID:  req.DatasetID,
		OwnerID:    req.OwnerID,
		ClassID:    req.ClassID,
		Label:      req.Label,
		Bounds:     req.Bounds.Normalized(),
		Zoom:       req.Zoom,
		Grid:       res.Grid,
		Annotation: res.Annotation,
		CreatedAt:  time.Now().UTC(),
	}

	if res.Image != nil {
		path, err := s.images.Save(ctx, fmt.Sprintf("boxes/%s.jpg", box.ID), res.Image.Data)
		if err != nil {
			return nil, fmt.Errorf("store composite: %w", err)
		}
		box.ImagePath = path
		box.ImageStatus = domain.ImageStatusReady
		box.ImageWidth = res.Image.Width
		box.ImageHeight = res.Image.Height
	} else {
		box.ImageStatus = domain.ImageStatusUnavailable
	}

	if err := s.boxes.Create(ctx, box); err != nil {
		if box.ImagePath != "" {
			_ = s.images.Delete(ctx, box.ImagePath)
		}
		return nil, fmt.Errorf("persist box: %w", err)
	}

	// Broadcast is best-effort; the box is already durable.
	if s.events != nil {
		_ = s.events.PublishBoxCreated(ctx, box)
	}

	return box, nil
}

// cachedBox pairs a box with the storage path its API serialization hides,
// so a cache round-trip does not lose the field Image and LabelLine need.
type cachedBox struct {
	Box       domain.Box `json:"box"`
	ImagePath string     `json:"image_path"`
}

// GetByID returns a single box, cached briefly since boxes are immutable
// once created.
func (s *BoxService) GetByID(ctx context.Context, id string) (*domain.Box, error) {
	cacheKey := "boxes:id:" + id
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var cached cachedBox
			if err := json.Unmarshal(data, &cached); err == nil {
				box := cached.Box
				box.ImagePath = cached.ImagePath
				return &box, nil
			}
		}
	}

	box, err := s.boxes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(cachedBox{Box: *box, ImagePath: box.ImagePath}); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 600)
		}
	}

	return box, nil
}

// ListByDataset returns one page of boxes plus the dataset total.
func (s *BoxService) ListByDataset(ctx context.Context, datasetID string, offset, limit int) ([]domain.Box, int, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.boxes.ListByDataset(ctx, datasetID, offset, limit)
}

// Delete removes a box, its stored image, and its cache entry. Only the
// owner may delete.
func (s *BoxService) Delete(ctx context.Context, id, requesterID string) error {
	box, err := s.boxes.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if box.OwnerID != requesterID {
		return ErrForbidden
	}

	if err := s.boxes.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete box: %w", err)
	}
	if box.ImagePath != "" {
		_ = s.images.Delete(ctx, box.ImagePath)
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, "boxes:id:"+id)
	}
	if s.events != nil {
		_ = s.events.PublishBoxDeleted(ctx, box.DatasetID, id)
	}
	return nil
}

// Image returns the stored composite bytes for a box.
func (s *BoxService) Image(ctx context.Context, id string) ([]byte, error) {
	box, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if box.ImageStatus != domain.ImageStatusReady {
		return nil, fmt.Errorf("box %s has no image (%s)", id, box.ImageStatus)
	}
	return s.images.Open(ctx, box.ImagePath)
}

// LabelLine renders the box's YOLO label line.
func (s *BoxService) LabelLine(ctx context.Context, id string) (string, error) {
	box, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return yolo.Line(box.ClassID, box.Annotation), nil
}
