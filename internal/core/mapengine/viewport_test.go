package mapengine_test

import (
	"math"
	"testing"

	"github.com/CodeAbbas/london-bus-time-checker/internal/core/domain"
	"github.com/CodeAbbas/london-bus-time-checker/internal/core/mapengine"
)

func TestSetCenterClampsAndNormalizes(t *testing.T) {
	v := mapengine.NewViewport(mapengine.DefaultConfig())

	cases := []struct {
		in      domain.GeoPoint
		wantLat float64
		wantLon float64
	}{
		{domain.GeoPoint{Lat: 89, Lon: 0}, 85, 0},
		{domain.GeoPoint{Lat: -89, Lon: 0}, -85, 0},
		{domain.GeoPoint{Lat: 51.5, Lon: 181}, 51.5, -179},
		{domain.GeoPoint{Lat: 51.5, Lon: -180}, 51.5, 180},
		{domain.GeoPoint{Lat: 51.5, Lon: -0.12}, 51.5, -0.12},
	}
	for _, c := range cases {
		v.SetCenter(c.in)
		if v.Center.Lat != c.wantLat || v.Center.Lon != c.wantLon {
			t.Errorf("SetCenter(%v) -> %v, want (%v,%v)", c.in, v.Center, c.wantLat, c.wantLon)
		}
	}
}

func TestZoomClamping(t *testing.T) {
	cfg := mapengine.Config{
		MinZoom:       8,
		MaxZoom:       18,
		DefaultCenter: domain.GeoPoint{Lat: 51.5074, Lon: -0.1278},
		DefaultZoom:   14,
	}
	v := mapengine.NewViewport(cfg)

	v.SetZoom(25)
	if v.Zoom != 18 {
		t.Errorf("zoom should clamp to 18, got %d", v.Zoom)
	}
	v.SetZoom(1)
	if v.Zoom != 8 {
		t.Errorf("zoom should clamp to 8, got %d", v.Zoom)
	}

	v.SetZoom(18)
	v.ZoomIn()
	if v.Zoom != 18 {
		t.Errorf("ZoomIn at max should stay 18, got %d", v.Zoom)
	}
	v.SetZoom(8)
	v.ZoomOut()
	if v.Zoom != 8 {
		t.Errorf("ZoomOut at min should stay 8, got %d", v.Zoom)
	}
	v.ZoomIn()
	if v.Zoom != 9 {
		t.Errorf("ZoomIn should step to 9, got %d", v.Zoom)
	}
}

func TestResetRestoresDefaultsAndClearsDrag(t *testing.T) {
	cfg := mapengine.DefaultConfig()
	v := mapengine.NewViewport(cfg)

	v.SetCenter(domain.GeoPoint{Lat: 48.85, Lon: 2.35})
	v.SetZoom(10)
	v.DragOffset = mapengine.Offset{DX: 40, DY: -12}

	v.Reset()
	if v.Center != cfg.DefaultCenter {
		t.Errorf("center after reset = %v, want %v", v.Center, cfg.DefaultCenter)
	}
	if v.Zoom != cfg.DefaultZoom {
		t.Errorf("zoom after reset = %d, want %d", v.Zoom, cfg.DefaultZoom)
	}
	if v.DragOffset != (mapengine.Offset{}) {
		t.Errorf("drag offset after reset = %+v, want zero", v.DragOffset)
	}
}

func TestRecenterOnClearsDrag(t *testing.T) {
	v := mapengine.NewViewport(mapengine.DefaultConfig())
	v.DragOffset = mapengine.Offset{DX: 5, DY: 5}

	stop := domain.GeoPoint{Lat: 51.53, Lon: -0.05}
	v.RecenterOn(stop, 16)

	if v.Center != stop {
		t.Errorf("center = %v, want %v", v.Center, stop)
	}
	if v.Zoom != 16 {
		t.Errorf("zoom = %d, want 16", v.Zoom)
	}
	if v.DragOffset != (mapengine.Offset{}) {
		t.Errorf("drag offset should be cleared, got %+v", v.DragOffset)
	}
}

func TestAutoCenterPriority(t *testing.T) {
	cfg := mapengine.DefaultConfig()
	user := domain.GeoPoint{Lat: 51.49, Lon: -0.22}
	entities := []domain.MapEntity{
		{Kind: domain.EntityStop, Location: domain.GeoPoint{Lat: 51.50, Lon: -0.10}},
		{Kind: domain.EntityStop, Location: domain.GeoPoint{Lat: 51.54, Lon: -0.06}},
	}

	// User location wins over the entity bounding box.
	v := mapengine.NewViewport(cfg)
	v.AutoCenter(&user, entities)
	if v.Center != user {
		t.Errorf("with user location, center = %v, want %v", v.Center, user)
	}

	// No user location: bounding-box midpoint of the entity set.
	v = mapengine.NewViewport(cfg)
	v.AutoCenter(nil, entities)
	if math.Abs(v.Center.Lat-51.52) > 1e-9 || math.Abs(v.Center.Lon-(-0.08)) > 1e-9 {
		t.Errorf("with entities only, center = %v, want (51.52,-0.08)", v.Center)
	}

	// Neither: fixed default.
	v = mapengine.NewViewport(cfg)
	v.SetCenter(domain.GeoPoint{Lat: 0, Lon: 0})
	v.AutoCenter(nil, nil)
	if v.Center != cfg.DefaultCenter {
		t.Errorf("with nothing, center = %v, want %v", v.Center, cfg.DefaultCenter)
	}
}
