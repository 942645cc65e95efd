package composite

import (
	"bytes"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/olaizola/maplabel/internal/core/domain"
)

// PlaceholderColor is the neutral grey used for canvas background and for
// tiles that could not be fetched.
var PlaceholderColor = color.NRGBA{R: 0xE0, G: 0xDE, B: 0xD8, A: 0xFF}

// Stitch assembles the fetched tiles onto one canvas of
// gridWidth*tileSize x gridHeight*tileSize pixels. Each tile is placed at
// its grid-relative offset, keyed by tile coordinate rather than slice
// order. tiles must parallel grid.Tiles.
func Stitch(grid domain.TileGrid, tiles []image.Image, tileSize int) *image.NRGBA {
	canvas := imaging.New(grid.GridWidth*tileSize, grid.GridHeight*tileSize, PlaceholderColor)

	for i, tc := range grid.Tiles {
		if i >= len(tiles) || tiles[i] == nil {
			continue
		}
		offset := image.Pt((tc.X-grid.MinX)*tileSize, (tc.Y-grid.MinY)*tileSize)
		canvas = imaging.Paste(canvas, tiles[i], offset)
	}

	return canvas
}

// EncodeJPEG serializes the canvas at the given quality.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
