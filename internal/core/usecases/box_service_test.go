package usecases_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/olaizola/maplabel/internal/core/composite"
	"github.com/olaizola/maplabel/internal/core/domain"
	"github.com/olaizola/maplabel/internal/core/usecases"
)

func testEngine() *composite.Engine {
	return &composite.Engine{
		Source:      &staticTileSource{size: 256},
		TileSize:    256,
		Workers:     4,
		MaxTiles:    64,
		JPEGQuality: 85,
	}
}

func testDataset() *domain.Dataset {
	return &domain.Dataset{
		ID:      "ds-1",
		OwnerID: "user-1",
		Slug:    "rooftops",
		Name:    "Rooftops",
		Classes: []string{"roof", "solar-panel"},
	}
}

func TestBoxService_Create(t *testing.T) {
	var stored *domain.Box
	boxes := &mockBoxRepo{
		createFn: func(ctx context.Context, box *domain.Box) error {
			stored = box
			return nil
		},
	}
	datasets := &mockDatasetRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Dataset, error) {
			return testDataset(), nil
		},
	}
	images := &mockImageStore{}
	events := &mockPublisher{}

	svc := usecases.NewBoxService(boxes, datasets, images, events, nil, testEngine())

	box, err := svc.Create(context.Background(), usecases.CreateBoxRequest{
		DatasetID: "ds-1",
		OwnerID:   "user-1",
		ClassID:   1,
		Label:     "panel cluster",
		Bounds:    domain.GeoBounds{South: 50.000, West: 10.000, North: 50.010, East: 10.010},
		Zoom:      14,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if box.ImageStatus != domain.ImageStatusReady {
		t.Errorf("image status = %s, want ready", box.ImageStatus)
	}
	if !strings.HasSuffix(box.ImagePath, ".jpg") {
		t.Errorf("image path = %q", box.ImagePath)
	}
	if box.ImageWidth != 256 || box.ImageHeight != 512 {
		t.Errorf("image %dx%d, want 256x512", box.ImageWidth, box.ImageHeight)
	}
	if box.Annotation.Width <= 0 || box.Annotation.Width > 1 {
		t.Errorf("annotation width %f out of range", box.Annotation.Width)
	}
	if stored == nil {
		t.Fatal("box not persisted")
	}
	if len(events.boxCreated) != 1 {
		t.Errorf("expected 1 created event, got %d", len(events.boxCreated))
	}
}

func TestBoxService_Create_UnknownDataset(t *testing.T) {
	datasets := &mockDatasetRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Dataset, error) {
			return nil, domain.ErrNotFound
		},
	}
	svc := usecases.NewBoxService(&mockBoxRepo{}, datasets, &mockImageStore{}, nil, nil, testEngine())

	_, err := svc.Create(context.Background(), usecases.CreateBoxRequest{
		DatasetID: "no-such-dataset",
		OwnerID:   "user-1",
		Bounds:    domain.GeoBounds{South: 50.000, West: 10.000, North: 50.010, East: 10.010},
		Zoom:      14,
	})
	if !errors.Is(err, usecases.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestBoxService_Create_RejectsUnknownClass(t *testing.T) {
	datasets := &mockDatasetRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Dataset, error) {
			return testDataset(), nil
		},
	}

	svc := usecases.NewBoxService(&mockBoxRepo{}, datasets, &mockImageStore{}, nil, nil, testEngine())

	_, err := svc.Create(context.Background(), usecases.CreateBoxRequest{
		DatasetID: "ds-1",
		OwnerID:   "user-1",
		ClassID:   7, // dataset has 2 classes
		Bounds:    domain.GeoBounds{South: 50.000, West: 10.000, North: 50.010, East: 10.010},
		Zoom:      14,
	})
	if !errors.Is(err, usecases.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestBoxService_Create_RejectsOversizedGrid(t *testing.T) {
	datasets := &mockDatasetRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Dataset, error) {
			return testDataset(), nil
		},
	}
	eng := testEngine()
	eng.MaxTiles = 4

	svc := usecases.NewBoxService(&mockBoxRepo{}, datasets, &mockImageStore{}, nil, nil, eng)

	_, err := svc.Create(context.Background(), usecases.CreateBoxRequest{
		DatasetID: "ds-1",
		OwnerID:   "user-1",
		ClassID:   0,
		Bounds:    domain.GeoBounds{South: 40.0, West: 0.0, North: 55.0, East: 20.0},
		Zoom:      14,
	})
	if err != domain.ErrTooManyTiles {
		t.Fatalf("expected ErrTooManyTiles, got %v", err)
	}
}

func TestBoxService_Delete_OwnerOnly(t *testing.T) {
	boxes := &mockBoxRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Box, error) {
			return &domain.Box{ID: id, DatasetID: "ds-1", OwnerID: "user-1", ImagePath: "boxes/b.jpg"}, nil
		},
	}
	svc := usecases.NewBoxService(boxes, &mockDatasetRepo{}, &mockImageStore{}, &mockPublisher{}, nil, testEngine())

	if err := svc.Delete(context.Background(), "box-1", "someone-else"); err != usecases.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.Delete(context.Background(), "box-1", "user-1"); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
}

func TestBoxService_Delete_RemovesImageAndBroadcasts(t *testing.T) {
	var deletedImage string
	boxes := &mockBoxRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Box, error) {
			return &domain.Box{ID: id, DatasetID: "ds-1", OwnerID: "user-1", ImagePath: "boxes/b.jpg"}, nil
		},
	}
	images := &mockImageStore{
		deleteFn: func(ctx context.Context, path string) error {
			deletedImage = path
			return nil
		},
	}
	events := &mockPublisher{}
	svc := usecases.NewBoxService(boxes, &mockDatasetRepo{}, images, events, nil, testEngine())

	if err := svc.Delete(context.Background(), "box-1", "user-1"); err != nil {
		t.Fatal(err)
	}
	if deletedImage != "boxes/b.jpg" {
		t.Errorf("deleted %q, want boxes/b.jpg", deletedImage)
	}
	if len(events.boxDeleted) != 1 || events.boxDeleted[0] != "box-1" {
		t.Errorf("deleted events: %v", events.boxDeleted)
	}
}

func TestBoxService_GetByID_CachesResult(t *testing.T) {
	calls := 0
	boxes := &mockBoxRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Box, error) {
			calls++
			return &domain.Box{ID: id, DatasetID: "ds-1"}, nil
		},
	}
	cache := newMockCache()
	svc := usecases.NewBoxService(boxes, &mockDatasetRepo{}, &mockImageStore{}, nil, cache, testEngine())

	if _, err := svc.GetByID(context.Background(), "box-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetByID(context.Background(), "box-1"); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("repository hit %d times, want 1", calls)
	}
}

func TestBoxService_Image_ServesThroughCache(t *testing.T) {
	repoCalls := 0
	boxes := &mockBoxRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Box, error) {
			repoCalls++
			return &domain.Box{
				ID:          id,
				DatasetID:   "ds-1",
				ImagePath:   "boxes/b1.jpg",
				ImageStatus: domain.ImageStatusReady,
			}, nil
		},
	}
	var opened []string
	images := &mockImageStore{
		openFn: func(ctx context.Context, path string) ([]byte, error) {
			opened = append(opened, path)
			return []byte{0xff, 0xd8}, nil
		},
	}
	svc := usecases.NewBoxService(boxes, &mockDatasetRepo{}, images, nil, newMockCache(), testEngine())

	// First read fills the cache, second is served from it. Both must open
	// the same stored file even though the image path never leaves the API.
	for i := 0; i < 2; i++ {
		if _, err := svc.Image(context.Background(), "b1"); err != nil {
			t.Fatalf("image read %d: %v", i+1, err)
		}
	}
	if repoCalls != 1 {
		t.Errorf("repository hit %d times, want 1", repoCalls)
	}
	if len(opened) != 2 || opened[0] != "boxes/b1.jpg" || opened[1] != "boxes/b1.jpg" {
		t.Errorf("opened paths = %v, want boxes/b1.jpg twice", opened)
	}
}

func TestBoxService_LabelLine(t *testing.T) {
	boxes := &mockBoxRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Box, error) {
			return &domain.Box{
				ID:      id,
				ClassID: 1,
				Annotation: domain.NormalizedAnnotation{
					XCenter: 0.338666667, YCenter: 0.596968485,
					Width: 0.455111111, Height: 0.354050424,
				},
			}, nil
		},
	}
	svc := usecases.NewBoxService(boxes, &mockDatasetRepo{}, &mockImageStore{}, nil, nil, testEngine())

	line, err := svc.LabelLine(context.Background(), "box-1")
	if err != nil {
		t.Fatal(err)
	}
	if line != "1 0.338667 0.596968 0.455111 0.354050" {
		t.Errorf("label line = %q", line)
	}
}
