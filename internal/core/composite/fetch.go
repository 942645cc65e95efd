package composite

import (
	"context"
	"image"
	"sync"

	"github.com/olaizola/maplabel/internal/core/domain"
	"github.com/olaizola/maplabel/internal/core/ports"
)

// FetchAll retrieves every tile of the grid concurrently, at most workers
// at a time, and joins before returning. The result slice is indexed by
// the tile's position in grid.Tiles, so the outcome is independent of
// completion order. Failed tiles arrive as placeholders from the source;
// no error can surface here.
func FetchAll(ctx context.Context, src ports.TileSource, grid domain.TileGrid, workers int) []image.Image {
	if workers <= 0 {
		workers = 1
	}

	out := make([]image.Image, len(grid.Tiles))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, tile := range grid.Tiles {
		wg.Add(1)
		go func(i int, tile domain.TileCoordinate) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			out[i] = src.Tile(ctx, tile)
		}(i, tile)
	}

	wg.Wait()
	return out
}
