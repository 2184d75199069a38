package mapengine

import (
	"math"
	"strconv"
	"strings"
)

// TilePlacement pairs a tile address with the viewport pixel position of
// its north-west corner.
type TilePlacement struct {
	Tile   TileCoordinate `json:"tile"`
	Screen ScreenPoint    `json:"screen"`
}

// TileGrid enumerates the tiles covering the viewport: a rectangular grid
// of ceil(w/256)+2 by ceil(h/256)+2 tiles centered on the center tile,
// with anything outside [0, 2^zoom) in either axis skipped. The extra
// ring on each side keeps tiles on screen mid-drag.
func TileGrid(v Viewport, size Size) []TilePlacement {
	cols := int(math.Ceil(float64(size.Width)/TileSize)) + 2
	rows := int(math.Ceil(float64(size.Height)/TileSize)) + 2

	center := TileForPoint(v.Center, v.Zoom)
	startX := center.X - cols/2
	startY := center.Y - rows/2

	wc := Project(v.Center, v.Zoom)
	max := 1 << v.Zoom

	placements := make([]TilePlacement, 0, cols*rows)
	for y := startY; y < startY+rows; y++ {
		if y < 0 || y >= max {
			continue
		}
		for x := startX; x < startX+cols; x++ {
			if x < 0 || x >= max {
				continue
			}
			placements = append(placements, TilePlacement{
				Tile: TileCoordinate{X: x, Y: y, Z: v.Zoom},
				Screen: ScreenPoint{
					X: float64(x)*TileSize - wc.X + float64(size.Width)/2 + v.DragOffset.DX,
					Y: float64(y)*TileSize - wc.Y + float64(size.Height)/2 + v.DragOffset.DY,
				},
			})
		}
	}
	return placements
}

// TileURL expands a {z}/{x}/{y} template into a tile address. The engine
// never fetches the image bytes; it only computes addresses.
func TileURL(template string, t TileCoordinate) string {
	r := strings.NewReplacer(
		"{z}", strconv.Itoa(t.Z),
		"{x}", strconv.Itoa(t.X),
		"{y}", strconv.Itoa(t.Y),
	)
	return r.Replace(template)
}
