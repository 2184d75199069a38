package mapengine

import (
	"sort"

	"github.com/CodeAbbas/london-bus-time-checker/internal/core/domain"
)

// CullMargin expands the visible bounds when culling so markers near the
// edge do not pop in and out while the map is dragged.
const CullMargin = 50.0

// Render layers, back to front. The tile raster sits below all markers;
// the selected stop always draws topmost.
const (
	LayerTiles = iota
	LayerStops
	LayerUserLocation
	LayerVehicles
	LayerSelected
)

// Marker is a map entity placed in viewport pixel space.
type Marker struct {
	Entity domain.MapEntity `json:"entity"`
	Screen ScreenPoint      `json:"screen"`
	Layer  int              `json:"layer"`
}

// ProjectMarkers computes screen positions for every entity, drops the
// ones outside the viewport bounds expanded by CullMargin, and returns
// the survivors sorted back-to-front for rendering.
func ProjectMarkers(entities []domain.MapEntity, v Viewport, size Size) []Marker {
	markers := make([]Marker, 0, len(entities))
	for _, e := range entities {
		sp := GeoToScreen(e.Location, v, size)
		if culled(sp, size) {
			continue
		}
		markers = append(markers, Marker{
			Entity: e,
			Screen: sp,
			Layer:  layerFor(e),
		})
	}
	sort.SliceStable(markers, func(i, j int) bool {
		return markers[i].Layer < markers[j].Layer
	})
	return markers
}

func culled(sp ScreenPoint, size Size) bool {
	return sp.X < -CullMargin || sp.X > float64(size.Width)+CullMargin ||
		sp.Y < -CullMargin || sp.Y > float64(size.Height)+CullMargin
}

func layerFor(e domain.MapEntity) int {
	if e.Selected {
		return LayerSelected
	}
	switch e.Kind {
	case domain.EntityVehicle:
		return LayerVehicles
	case domain.EntityUserLocation:
		return LayerUserLocation
	default:
		return LayerStops
	}
}
