package ports

import (
	"context"

	"github.com/CodeAbbas/london-bus-time-checker/internal/core/domain"
)

// TransitSource is the upstream live transit data provider (TfL). The core
// only ever sees parsed entity lists; the upstream schema stays inside the
// adapter, and entities with missing coordinates never cross this boundary.
type TransitSource interface {
	SearchStops(ctx context.Context, query string, limit int) ([]domain.Stop, error)
	StopsNearby(ctx context.Context, lat, lon, radiusMeters float64) ([]domain.Stop, error)
	StopArrivals(ctx context.Context, stopID string) ([]domain.Arrival, error)
	VehiclePosition(ctx context.Context, vehicleID string) (*domain.VehiclePosition, error)
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// EventPublisher publishes live-data events to a message broker.
type EventPublisher interface {
	PublishSnapshot(ctx context.Context, snap *domain.Snapshot) error
	PublishVehiclePosition(ctx context.Context, vp *domain.VehiclePosition) error
}
