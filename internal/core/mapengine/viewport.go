package mapengine

import (
	"github.com/CodeAbbas/london-bus-time-checker/internal/core/domain"
)

// Offset is an in-progress drag displacement in screen pixels. It is
// transient: every gesture commit and programmatic recenter resets it.
type Offset struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// Config fixes the zoom range and the fallback view.
type Config struct {
	MinZoom       int
	MaxZoom       int
	DefaultCenter domain.GeoPoint
	DefaultZoom   int
}

// DefaultConfig is the London street-level dashboard view.
func DefaultConfig() Config {
	return Config{
		MinZoom:       8,
		MaxZoom:       18,
		DefaultCenter: domain.GeoPoint{Lat: 51.5074, Lon: -0.1278},
		DefaultZoom:   14,
	}
}

// Viewport is the authoritative current view: center, zoom, and any
// in-progress drag offset. All mutations clamp latitude to ±85°,
// normalize longitude into (-180, 180], and clamp zoom to the config range.
type Viewport struct {
	Center     domain.GeoPoint `json:"center"`
	Zoom       int             `json:"zoom"`
	DragOffset Offset          `json:"drag_offset"`

	cfg Config
}

// NewViewport returns a viewport at the configured default view.
func NewViewport(cfg Config) Viewport {
	if cfg.MaxZoom == 0 {
		cfg = DefaultConfig()
	}
	return Viewport{
		Center: cfg.DefaultCenter.Clamped(),
		Zoom:   clampZoom(cfg.DefaultZoom, cfg),
		cfg:    cfg,
	}
}

func clampZoom(z int, cfg Config) int {
	if z < cfg.MinZoom {
		return cfg.MinZoom
	}
	if z > cfg.MaxZoom {
		return cfg.MaxZoom
	}
	return z
}

// SetCenter moves the view center, clamping to the valid band.
func (v *Viewport) SetCenter(p domain.GeoPoint) {
	v.Center = p.Clamped()
}

// SetZoom sets the zoom level, clamped to the configured range.
func (v *Viewport) SetZoom(z int) {
	v.Zoom = clampZoom(z, v.cfg)
}

// ZoomIn steps zoom by +1, clamped.
func (v *Viewport) ZoomIn() {
	v.SetZoom(v.Zoom + 1)
}

// ZoomOut steps zoom by -1, clamped.
func (v *Viewport) ZoomOut() {
	v.SetZoom(v.Zoom - 1)
}

// Reset restores the configured default center and zoom and clears any
// in-progress drag offset.
func (v *Viewport) Reset() {
	v.Center = v.cfg.DefaultCenter.Clamped()
	v.Zoom = clampZoom(v.cfg.DefaultZoom, v.cfg)
	v.DragOffset = Offset{}
}

// RecenterOn jumps to a point at the given zoom and clears the drag
// offset. This is how selection auto-follow works: whenever the selected
// stop or vehicle changes, the host calls RecenterOn with its position.
func (v *Viewport) RecenterOn(p domain.GeoPoint, zoom int) {
	v.Center = p.Clamped()
	v.Zoom = clampZoom(zoom, v.cfg)
	v.DragOffset = Offset{}
}

// AutoCenter applies the fallback centering policy when no explicit
// selection exists. Priority order, which must not change: a known user
// location wins; otherwise the bounding-box midpoint of the entity set;
// otherwise the configured default.
func (v *Viewport) AutoCenter(user *domain.GeoPoint, entities []domain.MapEntity) {
	if user != nil {
		v.SetCenter(*user)
		return
	}
	if len(entities) > 0 {
		points := make([]domain.GeoPoint, len(entities))
		for i, e := range entities {
			points[i] = e.Location
		}
		if b, ok := domain.BoundsOf(points); ok {
			v.SetCenter(b.Midpoint())
			return
		}
	}
	v.SetCenter(v.cfg.DefaultCenter)
}

// CommitDrag folds the accumulated drag offset into the center by inverse
// projection at the current zoom, then clears the offset. Dragging the map
// right moves the viewed world left, hence the subtraction.
func (v *Viewport) CommitDrag() {
	if v.DragOffset == (Offset{}) {
		return
	}
	wc := Project(v.Center, v.Zoom)
	moved := Unproject(WorldPixel{
		X: wc.X - v.DragOffset.DX,
		Y: wc.Y - v.DragOffset.DY,
	}, v.Zoom)
	v.Center = moved.Clamped()
	v.DragOffset = Offset{}
}
