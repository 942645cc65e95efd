package domain

import "errors"

// MaxMercatorLatitude is the highest latitude representable in the Web
// Mercator tile pyramid. Bounds beyond it must be rejected before the
// compositing engine is invoked.
const MaxMercatorLatitude = 85.05112878

var (
	// ErrLatitudeOutOfRange is returned for bounds outside the Mercator-safe
	// latitude range.
	ErrLatitudeOutOfRange = errors.New("latitude outside Web Mercator range")

	// ErrTooManyTiles is returned when a bounding box would require more
	// tiles than the configured per-request maximum.
	ErrTooManyTiles = errors.New("bounding box covers too many tiles at this zoom")

	// ErrNotFound is returned by repositories when no row matches a lookup.
	// Adapters translate their driver's sentinel into this one.
	ErrNotFound = errors.New("not found")
)

// GeoBounds is a geographic bounding box in WGS 84 degrees. Clients may
// submit either diagonal's corners in either order; Normalized sorts them.
type GeoBounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// Normalized returns the bounds with south<=north and west<=east.
func (b GeoBounds) Normalized() GeoBounds {
	n := b
	if n.South > n.North {
		n.South, n.North = n.North, n.South
	}
	if n.West > n.East {
		n.West, n.East = n.East, n.West
	}
	return n
}

// Validate rejects bounds that fall outside the Mercator-safe latitude range.
func (b GeoBounds) Validate() error {
	if b.South < -MaxMercatorLatitude || b.South > MaxMercatorLatitude ||
		b.North < -MaxMercatorLatitude || b.North > MaxMercatorLatitude {
		return ErrLatitudeOutOfRange
	}
	return nil
}

// TileCoordinate addresses one raster tile in the XYZ scheme (north-up,
// y=0 at the north edge). Valid range for x and y is [0, 2^z).
type TileCoordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// TileGrid is the minimal rectangle of tiles covering a GeoBounds at one
// zoom level. Tiles enumerates the full rectangle row-major.
type TileGrid struct {
	Tiles      []TileCoordinate `json:"tiles"`
	MinX       int              `json:"min_x"`
	MinY       int              `json:"min_y"`
	MaxX       int              `json:"max_x"`
	MaxY       int              `json:"max_y"`
	GridWidth  int              `json:"grid_width"`
	GridHeight int              `json:"grid_height"`
}

// OriginPixel returns the global pixel coordinate of the grid's top-left
// corner, used to convert global pixel space to composite-local space.
func (g TileGrid) OriginPixel(tileSize int) (x, y float64) {
	return float64(g.MinX * tileSize), float64(g.MinY * tileSize)
}

// PixelRect is a rectangle in composite-image pixel space. It is kept
// unclamped for diagnostics and preview rendering; Y1 is the top edge.
type PixelRect struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// NormalizedAnnotation is a YOLO bounding box: center and extent as
// fractions of the composite image dimensions, each clamped to [0,1].
type NormalizedAnnotation struct {
	XCenter   float64   `json:"x_center"`
	YCenter   float64   `json:"y_center"`
	Width     float64   `json:"width"`
	Height    float64   `json:"height"`
	PixelRect PixelRect `json:"pixel_rect"`
}

// CompositeImage is an encoded raster stitched from a TileGrid. It is
// never mutated after creation.
type CompositeImage struct {
	Data   []byte `json:"-"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}
