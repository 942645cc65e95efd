package mercator

import "math"

// TileIndex returns the XYZ tile containing (lat, lng) at the given zoom.
// Latitude must already be inside the Mercator-safe range and longitude
// normalized to [-180, 180); both are caller preconditions.
func TileIndex(lat, lng float64, zoom int) (x, y int) {
	n := float64(int64(1) << uint(zoom))
	x = int(math.Floor((lng + 180.0) / 360.0 * n))
	y = int(math.Floor((1.0 - math.Asinh(math.Tan(lat*math.Pi/180.0))/math.Pi) / 2.0 * n))
	return x, y
}

// GlobalPixel returns the continuous global pixel coordinate of (lat, lng)
// at the given zoom, for tiles of tileSize pixels. Same projection as
// TileIndex, scaled by tileSize instead of floored to tile units.
func GlobalPixel(lat, lng float64, zoom, tileSize int) (px, py float64) {
	s := float64(int64(1)<<uint(zoom)) * float64(tileSize)
	px = (lng + 180.0) / 360.0 * s
	py = (1.0 - math.Asinh(math.Tan(lat*math.Pi/180.0))/math.Pi) / 2.0 * s
	return px, py
}
