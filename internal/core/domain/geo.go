package domain

import "math"

// Mercator projection bounds. Beyond ±85° the logarithmic-tangent term
// diverges, so every center update clamps latitude into this band.
const (
	MaxLat = 85.0
	MinLat = -85.0
)

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ClampLat returns lat clamped into [-85, 85].
func ClampLat(lat float64) float64 {
	if lat > MaxLat {
		return MaxLat
	}
	if lat < MinLat {
		return MinLat
	}
	return lat
}

// NormalizeLon wraps lon into (-180, 180].
func NormalizeLon(lon float64) float64 {
	lon = math.Mod(lon, 360)
	if lon > 180 {
		lon -= 360
	} else if lon <= -180 {
		lon += 360
	}
	return lon
}

// Clamped returns the point with latitude clamped and longitude normalized.
func (p GeoPoint) Clamped() GeoPoint {
	return GeoPoint{Lat: ClampLat(p.Lat), Lon: NormalizeLon(p.Lon)}
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// BoundsOf returns the axis-aligned bounding box of the given points.
// The second return value is false when points is empty.
func BoundsOf(points []GeoPoint) (Bounds, bool) {
	if len(points) == 0 {
		return Bounds{}, false
	}
	b := Bounds{
		MinLat: points[0].Lat, MaxLat: points[0].Lat,
		MinLon: points[0].Lon, MaxLon: points[0].Lon,
	}
	for _, p := range points[1:] {
		b.MinLat = math.Min(b.MinLat, p.Lat)
		b.MaxLat = math.Max(b.MaxLat, p.Lat)
		b.MinLon = math.Min(b.MinLon, p.Lon)
		b.MaxLon = math.Max(b.MaxLon, p.Lon)
	}
	return b, true
}

// Midpoint returns the axis-aligned center of the box.
func (b Bounds) Midpoint() GeoPoint {
	return GeoPoint{
		Lat: (b.MinLat + b.MaxLat) / 2,
		Lon: (b.MinLon + b.MaxLon) / 2,
	}
}
