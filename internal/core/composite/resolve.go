// Package composite implements the tile-compositing engine: resolving the
// tile grid that covers a geographic bounding box, fetching the tiles
// concurrently, stitching them into one raster, and re-projecting the box
// into YOLO-normalized coordinates inside that raster. It is a pure
// transform shared by every request surface; persistence and identity live
// with the callers.
package composite

import (
	"github.com/olaizola/maplabel/internal/core/domain"
	"github.com/olaizola/maplabel/internal/pkg/mercator"
)

// Resolve computes the minimal rectangle of tiles covering bounds at zoom.
// The corner tile indices are combined element-wise with min/max, so
// swapped south/north or west/east input produces an identical grid.
// maxTiles caps the grid area; zero disables the cap.
func Resolve(bounds domain.GeoBounds, zoom, maxTiles int) (domain.TileGrid, error) {
	b := bounds.Normalized()

	swX, swY := mercator.TileIndex(b.South, b.West, zoom)
	neX, neY := mercator.TileIndex(b.North, b.East, zoom)

	// North maps to the smaller tile Y, so the corner indices are not in
	// min/max position per axis; sort them rather than trusting geography.
	minX, maxX := ordered(swX, neX)
	minY, maxY := ordered(swY, neY)

	last := (1 << uint(zoom)) - 1
	minX, maxX = clampRange(minX, maxX, last)
	minY, maxY = clampRange(minY, maxY, last)

	w := maxX - minX + 1
	h := maxY - minY + 1
	if maxTiles > 0 && w*h > maxTiles {
		return domain.TileGrid{}, domain.ErrTooManyTiles
	}

	tiles := make([]domain.TileCoordinate, 0, w*h)
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			tiles = append(tiles, domain.TileCoordinate{X: x, Y: y, Z: zoom})
		}
	}

	return domain.TileGrid{
		Tiles:      tiles,
		MinX:       minX,
		MinY:       minY,
		MaxX:       maxX,
		MaxY:       maxY,
		GridWidth:  w,
		GridHeight: h,
	}, nil
}

func ordered(a, b int) (lo, hi int) {
	if a > b {
		return b, a
	}
	return a, b
}

func clampRange(lo, hi, last int) (int, int) {
	if lo < 0 {
		lo = 0
	}
	if hi > last {
		hi = last
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}
