package domain

import (
	"time"
)

// Stop represents a bus stop point as returned by the transit source.
type Stop struct {
	ID         string    `json:"id"` // TfL Naptan ID
	Name       string    `json:"name"`
	Indicator  string    `json:"indicator,omitempty"` // e.g. "Stop K"
	StopLetter string    `json:"stop_letter,omitempty"`
	Location   GeoPoint  `json:"location"`
	Lines      []string  `json:"lines,omitempty"`
	Distance   *float64  `json:"distance,omitempty"` // meters, set on nearby queries
	FetchedAt  time.Time `json:"fetched_at,omitempty"`
}

// Arrival is a live arrival prediction for a stop.
type Arrival struct {
	ID            string    `json:"id"`
	VehicleID     string    `json:"vehicle_id"`
	LineName      string    `json:"line_name"`
	Destination   string    `json:"destination"`
	StopID        string    `json:"stop_id"`
	TimeToStation int       `json:"time_to_station"` // seconds
	ExpectedAt    time.Time `json:"expected_at"`
	Towards       string    `json:"towards,omitempty"`
}

// VehiclePosition is a live vehicle location reading.
type VehiclePosition struct {
	Time      time.Time `json:"time"`
	VehicleID string    `json:"vehicle_id"`
	LineName  string    `json:"line_name,omitempty"`
	Location  GeoPoint  `json:"location"`
	Bearing   float64   `json:"bearing"` // compass heading, 0-360
}

// Favorite is a user-saved stop reference.
type Favorite struct {
	ID        string    `json:"id"`
	StopID    string    `json:"stop_id"`
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EntityKind discriminates the map entity variants.
type EntityKind int

const (
	EntityStop EntityKind = iota
	EntityVehicle
	EntityUserLocation
)

// MapEntity is anything the marker projector can place on the map:
// a stop, a vehicle, or the user's own location. Entity lists are
// immutable snapshots replaced wholesale on each data fetch.
type MapEntity struct {
	Kind     EntityKind `json:"kind"`
	ID       string     `json:"id"`
	Label    string     `json:"label,omitempty"`
	Location GeoPoint   `json:"location"`
	Bearing  float64    `json:"bearing,omitempty"` // vehicles only
	Selected bool       `json:"selected,omitempty"`
}

// StopEntity converts a stop into a map entity.
func StopEntity(s Stop, selected bool) MapEntity {
	return MapEntity{
		Kind:     EntityStop,
		ID:       s.ID,
		Label:    s.Name,
		Location: s.Location,
		Selected: selected,
	}
}

// VehicleEntity converts a vehicle position into a map entity.
func VehicleEntity(vp VehiclePosition) MapEntity {
	return MapEntity{
		Kind:     EntityVehicle,
		ID:       vp.VehicleID,
		Label:    vp.LineName,
		Location: vp.Location,
		Bearing:  vp.Bearing,
	}
}

// Snapshot is one atomic view of live data for a tracked stop. Consumers
// always see a complete snapshot, never a partial refresh.
type Snapshot struct {
	StopID   string            `json:"stop_id"`
	Arrivals []Arrival         `json:"arrivals"`
	Vehicles []VehiclePosition `json:"vehicles"`
	TakenAt  time.Time         `json:"taken_at"`
}
