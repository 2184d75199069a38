// Package mapengine implements the slippy-map viewport: Web Mercator
// projection, viewport state, the drag gesture state machine, marker
// projection with culling, and tile grid enumeration. It has no knowledge
// of any UI runtime; callers feed it pointer events and read back screen
// placements.
package mapengine

import (
	"math"

	"github.com/CodeAbbas/london-bus-time-checker/internal/core/domain"
)

// TileSize is the edge length of a raster tile in pixels.
const TileSize = 256

// mercMaxLat is the latitude where Web Mercator tops out: arctan(sinh(π)).
// Latitudes at or beyond it project to the world edge rather than diverging.
const mercMaxLat = 85.0511

const (
	degToRad = math.Pi / 180.0
	radToDeg = 180.0 / math.Pi
)

// pow2 holds pre-calculated powers of 2 for zoom levels 0-21.
var pow2 = [22]float64{
	1, 2, 4, 8, 16, 32, 64, 128, 256, 512,
	1024, 2048, 4096, 8192, 16384, 32768, 65536,
	131072, 262144, 524288, 1048576, 2097152,
}

// WorldPixel is a position in world pixel space at some zoom level,
// with (0,0) at the north-west corner of the map.
type WorldPixel struct {
	X float64
	Y float64
}

// ScreenPoint is a position in viewport pixel space.
type ScreenPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is the viewport's pixel dimensions.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// WorldSize returns the edge length of the world in pixels at a zoom level.
func WorldSize(zoom int) float64 {
	return TileSize * pow2[zoom]
}

// Project converts a geographic point to world pixel coordinates at the
// given zoom. Longitude maps linearly; latitude uses the Mercator
// logarithmic-tangent transform. Latitudes at or beyond ±85.0511° map to
// the world edge (y=0 or y=worldSize) instead of diverging, so the poles
// yield a defined value rather than NaN.
func Project(p domain.GeoPoint, zoom int) WorldPixel {
	size := WorldSize(zoom)
	x := (p.Lon + 180.0) / 360.0 * size

	if p.Lat >= mercMaxLat {
		return WorldPixel{X: x, Y: 0}
	}
	if p.Lat <= -mercMaxLat {
		return WorldPixel{X: x, Y: size}
	}

	sinLat := math.Sin(p.Lat * degToRad)
	y := size * (0.5 - 0.25*math.Log((1.0+sinLat)/(1.0-sinLat))/math.Pi)
	return WorldPixel{X: x, Y: y}
}

// Unproject is the inverse of Project.
func Unproject(px WorldPixel, zoom int) domain.GeoPoint {
	size := WorldSize(zoom)
	lon := px.X/size*360.0 - 180.0
	lat := math.Atan(math.Sinh(math.Pi*(1.0-2.0*px.Y/size))) * radToDeg
	return domain.GeoPoint{Lat: lat, Lon: lon}
}

// GeoToScreen places a geographic point in viewport pixel space: it projects
// the point and the viewport center, re-centers the delta on the viewport,
// and adds the live drag offset.
func GeoToScreen(p domain.GeoPoint, v Viewport, size Size) ScreenPoint {
	wp := Project(p, v.Zoom)
	wc := Project(v.Center, v.Zoom)
	return ScreenPoint{
		X: wp.X - wc.X + float64(size.Width)/2 + v.DragOffset.DX,
		Y: wp.Y - wc.Y + float64(size.Height)/2 + v.DragOffset.DY,
	}
}

// ScreenToGeo converts a viewport pixel position back to a geographic
// point, ignoring any in-progress drag offset.
func ScreenToGeo(sp ScreenPoint, v Viewport, size Size) domain.GeoPoint {
	wc := Project(v.Center, v.Zoom)
	return Unproject(WorldPixel{
		X: wc.X + sp.X - float64(size.Width)/2,
		Y: wc.Y + sp.Y - float64(size.Height)/2,
	}, v.Zoom)
}

// TileCoordinate addresses a raster tile. Valid only where 0 <= X,Y < 2^Z.
type TileCoordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Valid reports whether the coordinate is inside the world at its zoom.
func (t TileCoordinate) Valid() bool {
	max := 1 << t.Z
	return t.X >= 0 && t.X < max && t.Y >= 0 && t.Y < max
}

// TileForPoint returns the tile containing a geographic point.
func TileForPoint(p domain.GeoPoint, zoom int) TileCoordinate {
	wp := Project(p, zoom)
	return TileCoordinate{
		X: int(math.Floor(wp.X / TileSize)),
		Y: int(math.Floor(wp.Y / TileSize)),
		Z: zoom,
	}
}
