package composite

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/olaizola/maplabel/internal/core/domain"
)

func solidTile(size int, c color.NRGBA) image.Image {
	return imaging.New(size, size, c)
}

func testGrid(minX, minY, w, h, zoom int) domain.TileGrid {
	tiles := make([]domain.TileCoordinate, 0, w*h)
	for y := minY; y < minY+h; y++ {
		for x := minX; x < minX+w; x++ {
			tiles = append(tiles, domain.TileCoordinate{X: x, Y: y, Z: zoom})
		}
	}
	return domain.TileGrid{
		Tiles: tiles,
		MinX:  minX, MinY: minY,
		MaxX: minX + w - 1, MaxY: minY + h - 1,
		GridWidth: w, GridHeight: h,
	}
}

func TestStitch_Dimensions(t *testing.T) {
	grid := testGrid(10, 20, 3, 2, 8)
	tiles := make([]image.Image, len(grid.Tiles))
	for i := range tiles {
		tiles[i] = solidTile(64, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	}

	canvas := Stitch(grid, tiles, 64)
	if canvas.Bounds().Dx() != 3*64 || canvas.Bounds().Dy() != 2*64 {
		t.Errorf("canvas %dx%d, want %dx%d", canvas.Bounds().Dx(), canvas.Bounds().Dy(), 3*64, 2*64)
	}
}

func TestStitch_PlacementKeyedByCoordinate(t *testing.T) {
	grid := testGrid(100, 200, 2, 2, 10)
	colors := []color.NRGBA{
		{R: 255, A: 255},          // (100,200) top-left
		{G: 255, A: 255},          // (101,200) top-right
		{B: 255, A: 255},          // (100,201) bottom-left
		{R: 255, G: 255, A: 255},  // (101,201) bottom-right
	}
	tiles := make([]image.Image, 4)
	for i, c := range colors {
		tiles[i] = solidTile(32, c)
	}

	canvas := Stitch(grid, tiles, 32)

	// Sample one pixel from the middle of each quadrant.
	samples := []struct {
		x, y int
		want color.NRGBA
	}{
		{16, 16, colors[0]},
		{48, 16, colors[1]},
		{16, 48, colors[2]},
		{48, 48, colors[3]},
	}
	for _, s := range samples {
		got := canvas.NRGBAAt(s.x, s.y)
		if got != s.want {
			t.Errorf("pixel (%d,%d) = %+v, want %+v", s.x, s.y, got, s.want)
		}
	}
}

func TestStitch_PlaceholderSubsetKeepsDimensions(t *testing.T) {
	grid := testGrid(0, 0, 2, 2, 4)
	blue := color.NRGBA{B: 200, A: 255}
	tiles := []image.Image{
		solidTile(32, blue),
		solidTile(32, PlaceholderColor), // simulated failed fetch
		solidTile(32, blue),
		solidTile(32, blue),
	}

	canvas := Stitch(grid, tiles, 32)
	if canvas.Bounds().Dx() != 64 || canvas.Bounds().Dy() != 64 {
		t.Fatalf("canvas %dx%d, want 64x64", canvas.Bounds().Dx(), canvas.Bounds().Dy())
	}
	if got := canvas.NRGBAAt(48, 16); got != PlaceholderColor {
		t.Errorf("failed tile region = %+v, want placeholder %+v", got, PlaceholderColor)
	}
	if got := canvas.NRGBAAt(16, 16); got != blue {
		t.Errorf("healthy tile region = %+v, want %+v", got, blue)
	}
}

func TestEncodeJPEG_RoundTrip(t *testing.T) {
	canvas := imaging.New(128, 96, color.NRGBA{R: 50, G: 100, B: 150, A: 255})

	data, err := EncodeJPEG(canvas, 85)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty JPEG output")
	}

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Bounds().Dx() != 128 || decoded.Bounds().Dy() != 96 {
		t.Errorf("decoded %dx%d, want 128x96", decoded.Bounds().Dx(), decoded.Bounds().Dy())
	}
}

// --- fetch orchestration ---

type fakeSource struct {
	size   int
	failAt map[domain.TileCoordinate]bool
}

func (f *fakeSource) Tile(ctx context.Context, tc domain.TileCoordinate) image.Image {
	if f.failAt[tc] {
		return solidTile(f.size, PlaceholderColor)
	}
	// Encode the coordinate into the pixel so placement can be verified.
	return solidTile(f.size, color.NRGBA{R: uint8(tc.X), G: uint8(tc.Y), A: 255})
}

func TestFetchAll_OneRasterPerTile(t *testing.T) {
	grid := testGrid(5, 9, 4, 3, 6)
	src := &fakeSource{size: 16}

	tiles := FetchAll(context.Background(), src, grid, 3)
	if len(tiles) != len(grid.Tiles) {
		t.Fatalf("got %d rasters for %d tiles", len(tiles), len(grid.Tiles))
	}
	for i, img := range tiles {
		if img == nil {
			t.Fatalf("tile %d missing", i)
		}
		got := img.(*image.NRGBA).NRGBAAt(0, 0)
		want := color.NRGBA{R: uint8(grid.Tiles[i].X), G: uint8(grid.Tiles[i].Y), A: 255}
		if got != want {
			t.Errorf("raster %d out of position: %+v, want %+v", i, got, want)
		}
	}
}

func TestEngine_Render(t *testing.T) {
	src := &fakeSource{size: 256}
	eng := &Engine{Source: src, TileSize: 256, Workers: 4, MaxTiles: 64, JPEGQuality: 85}

	bounds := domain.GeoBounds{South: 50.000, West: 10.000, North: 50.010, East: 10.010}
	res, err := eng.Render(context.Background(), bounds, 14)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if res.Image == nil {
		t.Fatalf("expected an image, got ImageErr=%v", res.ImageErr)
	}
	wantW := res.Grid.GridWidth * 256
	wantH := res.Grid.GridHeight * 256
	if res.Image.Width != wantW || res.Image.Height != wantH {
		t.Errorf("image %dx%d, want %dx%d", res.Image.Width, res.Image.Height, wantW, wantH)
	}
	if res.Annotation.Width == 0 || res.Annotation.Height == 0 {
		t.Errorf("annotation has zero extent: %+v", res.Annotation)
	}
}

func TestEngine_Render_PartialFailures(t *testing.T) {
	bounds := domain.GeoBounds{South: 50.000, West: 10.000, North: 50.010, East: 10.010}
	grid, _ := Resolve(bounds, 14, 0)

	src := &fakeSource{size: 256, failAt: map[domain.TileCoordinate]bool{grid.Tiles[0]: true}}
	eng := &Engine{Source: src, TileSize: 256, Workers: 4, JPEGQuality: 85}

	res, err := eng.Render(context.Background(), bounds, 14)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if res.Image == nil {
		t.Fatal("partial tile failure must not lose the image")
	}
	if res.Image.Width != grid.GridWidth*256 || res.Image.Height != grid.GridHeight*256 {
		t.Errorf("image %dx%d has wrong dimensions", res.Image.Width, res.Image.Height)
	}
}

func TestEngine_Render_RejectsOversizedRequest(t *testing.T) {
	eng := &Engine{Source: &fakeSource{size: 256}, TileSize: 256, MaxTiles: 16, JPEGQuality: 85}

	bounds := domain.GeoBounds{South: 0, West: -90, North: 60, East: 90}
	_, err := eng.Render(context.Background(), bounds, 14)
	if err != domain.ErrTooManyTiles {
		t.Fatalf("expected ErrTooManyTiles, got %v", err)
	}
}

func TestEngine_Render_RejectsPolarLatitude(t *testing.T) {
	eng := &Engine{Source: &fakeSource{size: 256}, TileSize: 256, JPEGQuality: 85}

	bounds := domain.GeoBounds{South: 84.0, West: 10.0, North: 89.9, East: 10.1}
	_, err := eng.Render(context.Background(), bounds, 10)
	if err != domain.ErrLatitudeOutOfRange {
		t.Fatalf("expected ErrLatitudeOutOfRange, got %v", err)
	}
}
