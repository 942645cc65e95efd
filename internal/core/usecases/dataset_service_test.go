package usecases_test

import (
	"context"
	"testing"

	"github.com/olaizola/maplabel/internal/core/domain"
	"github.com/olaizola/maplabel/internal/core/usecases"
)

func TestDatasetService_Create(t *testing.T) {
	var stored *domain.Dataset
	datasets := &mockDatasetRepo{
		createFn: func(ctx context.Context, ds *domain.Dataset) error {
			stored = ds
			return nil
		},
	}
	svc := usecases.NewDatasetService(datasets, &mockBoxRepo{}, nil)

	ds, err := svc.Create(context.Background(), usecases.CreateDatasetRequest{
		OwnerID:     "user-1",
		Slug:        "solar-roofs",
		Name:        "Solar Roofs",
		Classes:     []string{"panel"},
		DefaultZoom: 17,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ds.ID == "" {
		t.Error("missing id")
	}
	if stored == nil || stored.Slug != "solar-roofs" {
		t.Errorf("stored = %+v", stored)
	}
}

func TestDatasetService_Create_Validation(t *testing.T) {
	svc := usecases.NewDatasetService(&mockDatasetRepo{}, &mockBoxRepo{}, nil)

	cases := []usecases.CreateDatasetRequest{
		{Slug: "Has Spaces", Name: "x", Classes: []string{"a"}, DefaultZoom: 14},
		{Slug: "UPPER", Name: "x", Classes: []string{"a"}, DefaultZoom: 14},
		{Slug: "ok-slug", Name: "", Classes: []string{"a"}, DefaultZoom: 14},
		{Slug: "ok-slug", Name: "x", Classes: nil, DefaultZoom: 14},
		{Slug: "ok-slug", Name: "x", Classes: []string{"a"}, DefaultZoom: 30},
	}
	for i, req := range cases {
		if _, err := svc.Create(context.Background(), req); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestDatasetService_GetBySlug_CachesResult(t *testing.T) {
	calls := 0
	datasets := &mockDatasetRepo{
		getBySlugFn: func(ctx context.Context, slug string) (*domain.Dataset, error) {
			calls++
			return &domain.Dataset{ID: "ds-1", Slug: slug}, nil
		},
	}
	cache := newMockCache()
	svc := usecases.NewDatasetService(datasets, &mockBoxRepo{}, cache)

	for i := 0; i < 3; i++ {
		if _, err := svc.GetBySlug(context.Background(), "rooftops"); err != nil {
			t.Fatal(err)
		}
	}
	if calls != 1 {
		t.Errorf("repository hit %d times, want 1", calls)
	}
}

func TestDatasetService_Delete_OwnerOnly(t *testing.T) {
	datasets := &mockDatasetRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Dataset, error) {
			return &domain.Dataset{ID: id, OwnerID: "user-1", Slug: "r"}, nil
		},
	}
	svc := usecases.NewDatasetService(datasets, &mockBoxRepo{}, nil)

	if err := svc.Delete(context.Background(), "ds-1", "intruder"); err != usecases.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.Delete(context.Background(), "ds-1", "user-1"); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
}

func TestDatasetService_Stats(t *testing.T) {
	datasets := &mockDatasetRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Dataset, error) {
			return &domain.Dataset{ID: id, Classes: []string{"a", "b", "c"}}, nil
		},
	}
	boxes := &mockBoxRepo{
		listByDatasetFn: func(ctx context.Context, datasetID string, offset, limit int) ([]domain.Box, int, error) {
			return nil, 42, nil
		},
	}
	svc := usecases.NewDatasetService(datasets, boxes, nil)

	stats, err := svc.Stats(context.Background(), "ds-1")
	if err != nil {
		t.Fatal(err)
	}
	if stats.BoxCount != 42 || stats.Classes != 3 {
		t.Errorf("stats = %+v", stats)
	}
}
