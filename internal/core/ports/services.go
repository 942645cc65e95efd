package ports

import (
	"context"
	"image"

	"github.com/olaizola/maplabel/internal/core/domain"
)

// TileSource supplies one decoded tile raster. It never fails: on any
// transport or decode error the implementation substitutes a solid-color
// placeholder of the configured tile size, so a request for N tiles always
// yields N rasters.
type TileSource interface {
	Tile(ctx context.Context, tile domain.TileCoordinate) image.Image
}

// CacheService provides read-through byte caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// EventPublisher publishes labeling events to a message broker.
type EventPublisher interface {
	PublishBoxCreated(ctx context.Context, box *domain.Box) error
	PublishBoxDeleted(ctx context.Context, datasetID, boxID string) error
	PublishExportRequested(ctx context.Context, job *domain.ExportJob) error
	PublishExportProgress(ctx context.Context, progress *domain.ExportProgress) error
}

// EventSubscriber subscribes to labeling events from a message broker.
type EventSubscriber interface {
	SubscribeBoxEvents(ctx context.Context, handler func(ctx context.Context, ev *domain.BoxEvent) error) error
	SubscribeExportRequests(ctx context.Context, handler func(ctx context.Context, job *domain.ExportJob) error) error
}
