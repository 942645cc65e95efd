package composite

import (
	"context"
	"time"

	"github.com/olaizola/maplabel/internal/core/domain"
	"github.com/olaizola/maplabel/internal/core/ports"
)

// Engine runs the full pipeline: resolve grid, fetch tiles in parallel,
// stitch, encode, project. One Engine is shared by all request surfaces.
type Engine struct {
	Source      ports.TileSource
	TileSize    int
	Workers     int
	MaxTiles    int
	JPEGQuality int
	// FetchBudget bounds the whole fan-out so one stalled tile server
	// cannot hold a request open indefinitely.
	FetchBudget time.Duration
}

// Result carries everything a caller persists for one box.
type Result struct {
	Grid       domain.TileGrid
	Annotation domain.NormalizedAnnotation
	// Image is nil when encoding failed; Annotation is still valid then
	// and ImageErr records why no raster is available.
	Image    *domain.CompositeImage
	ImageErr error
}

// Render executes the pipeline for one bounding box. It returns an error
// only for invalid input (latitude range, tile cap); tile-level fetch
// failures degrade to placeholder regions and an encode failure degrades
// to a Result without an Image.
func (e *Engine) Render(ctx context.Context, bounds domain.GeoBounds, zoom int) (*Result, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}

	grid, err := Resolve(bounds, zoom, e.MaxTiles)
	if err != nil {
		return nil, err
	}

	// The annotation does not depend on fetched pixels; compute it up
	// front so it survives a failed encode.
	res := &Result{
		Grid:       grid,
		Annotation: Project(bounds, grid, zoom, e.TileSize),
	}

	fetchCtx := ctx
	if e.FetchBudget > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, e.FetchBudget)
		defer cancel()
	}
	tiles := FetchAll(fetchCtx, e.Source, grid, e.Workers)

	canvas := Stitch(grid, tiles, e.TileSize)

	data, err := EncodeJPEG(canvas, e.JPEGQuality)
	if err != nil {
		res.ImageErr = err
		return res, nil
	}

	res.Image = &domain.CompositeImage{
		Data:   data,
		Width:  canvas.Bounds().Dx(),
		Height: canvas.Bounds().Dy(),
	}
	return res, nil
}
