package composite

import (
	"math"

	"github.com/olaizola/maplabel/internal/core/domain"
	"github.com/olaizola/maplabel/internal/pkg/mercator"
)

// Project re-expresses the geographic box as a YOLO-normalized annotation
// inside the composite image described by grid. The normalized fields are
// clamped to [0,1] independently, absorbing the floating-point drift that
// appears when the continuous box slightly overshoots the quantized tile
// rectangle. The pixel rectangle is returned unclamped for diagnostics.
func Project(bounds domain.GeoBounds, grid domain.TileGrid, zoom, tileSize int) domain.NormalizedAnnotation {
	b := bounds.Normalized()

	swX, swY := mercator.GlobalPixel(b.South, b.West, zoom, tileSize)
	neX, neY := mercator.GlobalPixel(b.North, b.East, zoom, tileSize)

	origX, origY := grid.OriginPixel(tileSize)

	left := swX - origX
	right := neX - origX
	// Image Y grows downward while latitude grows upward: the box's top
	// edge is the NORTH corner's pixel Y. The horizontal axis has no such
	// inversion.
	top := neY - origY
	bottom := swY - origY

	imgW := float64(grid.GridWidth * tileSize)
	imgH := float64(grid.GridHeight * tileSize)

	width := math.Abs(right - left)
	height := math.Abs(bottom - top)

	return domain.NormalizedAnnotation{
		XCenter: clamp01((left + right) / 2 / imgW),
		YCenter: clamp01((top + bottom) / 2 / imgH),
		Width:   clamp01(width / imgW),
		Height:  clamp01(height / imgH),
		PixelRect: domain.PixelRect{
			X1: left,
			Y1: top,
			X2: right,
			Y2: bottom,
		},
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
