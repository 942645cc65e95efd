package usecases_test

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/olaizola/maplabel/internal/core/domain"
)

// --- Mock BoxRepository ---

type mockBoxRepo struct {
	createFn           func(ctx context.Context, box *domain.Box) error
	getByIDFn          func(ctx context.Context, id string) (*domain.Box, error)
	listByDatasetFn    func(ctx context.Context, datasetID string, offset, limit int) ([]domain.Box, int, error)
	listAllByDatasetFn func(ctx context.Context, datasetID string) ([]domain.Box, error)
	deleteFn           func(ctx context.Context, id string) error
}

func (m *mockBoxRepo) Create(ctx context.Context, box *domain.Box) error {
	if m.createFn != nil {
		return m.createFn(ctx, box)
	}
	return nil
}

func (m *mockBoxRepo) GetByID(ctx context.Context, id string) (*domain.Box, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockBoxRepo) ListByDataset(ctx context.Context, datasetID string, offset, limit int) ([]domain.Box, int, error) {
	if m.listByDatasetFn != nil {
		return m.listByDatasetFn(ctx, datasetID, offset, limit)
	}
	return nil, 0, nil
}

func (m *mockBoxRepo) ListAllByDataset(ctx context.Context, datasetID string) ([]domain.Box, error) {
	if m.listAllByDatasetFn != nil {
		return m.listAllByDatasetFn(ctx, datasetID)
	}
	return nil, nil
}

func (m *mockBoxRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// --- Mock DatasetRepository ---

type mockDatasetRepo struct {
	createFn    func(ctx context.Context, ds *domain.Dataset) error
	getByIDFn   func(ctx context.Context, id string) (*domain.Dataset, error)
	getBySlugFn func(ctx context.Context, slug string) (*domain.Dataset, error)
	listFn      func(ctx context.Context) ([]domain.Dataset, error)
	deleteFn    func(ctx context.Context, id string) error
}

func (m *mockDatasetRepo) Create(ctx context.Context, ds *domain.Dataset) error {
	if m.createFn != nil {
		return m.createFn(ctx, ds)
	}
	return nil
}

func (m *mockDatasetRepo) GetByID(ctx context.Context, id string) (*domain.Dataset, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockDatasetRepo) GetBySlug(ctx context.Context, slug string) (*domain.Dataset, error) {
	if m.getBySlugFn != nil {
		return m.getBySlugFn(ctx, slug)
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockDatasetRepo) List(ctx context.Context) ([]domain.Dataset, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockDatasetRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// --- Mock UserRepository ---

type mockUserRepo struct {
	createFn     func(ctx context.Context, u *domain.User) error
	getByIDFn    func(ctx context.Context, id string) (*domain.User, error)
	getByEmailFn func(ctx context.Context, email string) (*domain.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, u)
	}
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, fmt.Errorf("not found")
}

// --- Mock ExportJobRepository ---

type mockExportRepo struct {
	createFn func(ctx context.Context, job *domain.ExportJob) error
	getFn    func(ctx context.Context, id string) (*domain.ExportJob, error)
}

func (m *mockExportRepo) Create(ctx context.Context, job *domain.ExportJob) error {
	if m.createFn != nil {
		return m.createFn(ctx, job)
	}
	return nil
}

func (m *mockExportRepo) GetByID(ctx context.Context, id string) (*domain.ExportJob, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockExportRepo) SetRunning(ctx context.Context, id string) error { return nil }
func (m *mockExportRepo) SetCompleted(ctx context.Context, id, archivePath string, boxCount int) error {
	return nil
}
func (m *mockExportRepo) SetFailed(ctx context.Context, id, errMsg string) error { return nil }
func (m *mockExportRepo) ListByDataset(ctx context.Context, datasetID string) ([]domain.ExportJob, error) {
	return nil, nil
}

// --- Mock ImageStore ---

type mockImageStore struct {
	saveFn   func(ctx context.Context, name string, data []byte) (string, error)
	openFn   func(ctx context.Context, path string) ([]byte, error)
	deleteFn func(ctx context.Context, path string) error
}

func (m *mockImageStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	if m.saveFn != nil {
		return m.saveFn(ctx, name, data)
	}
	return name, nil
}

func (m *mockImageStore) Open(ctx context.Context, path string) ([]byte, error) {
	if m.openFn != nil {
		return m.openFn(ctx, path)
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockImageStore) Delete(ctx context.Context, path string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, path)
	}
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	boxCreated      []*domain.Box
	boxDeleted      []string
	exportRequested []*domain.ExportJob
}

func (m *mockPublisher) PublishBoxCreated(ctx context.Context, box *domain.Box) error {
	m.boxCreated = append(m.boxCreated, box)
	return nil
}

func (m *mockPublisher) PublishBoxDeleted(ctx context.Context, datasetID, boxID string) error {
	m.boxDeleted = append(m.boxDeleted, boxID)
	return nil
}

func (m *mockPublisher) PublishExportRequested(ctx context.Context, job *domain.ExportJob) error {
	m.exportRequested = append(m.exportRequested, job)
	return nil
}

func (m *mockPublisher) PublishExportProgress(ctx context.Context, progress *domain.ExportProgress) error {
	return nil
}

// --- Mock CacheService ---

type mockCache struct {
	store map[string][]byte
}

func newMockCache() *mockCache { return &mockCache{store: map[string][]byte{}} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := m.store[key]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("miss")
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.store[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	delete(m.store, key)
	return nil
}

// --- Fake tile source for engine-backed tests ---

type staticTileSource struct {
	size int
}

func (s *staticTileSource) Tile(ctx context.Context, tc domain.TileCoordinate) image.Image {
	return imaging.New(s.size, s.size, color.NRGBA{R: 90, G: 120, B: 90, A: 255})
}
