package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/CodeAbbas/london-bus-time-checker/internal/core/domain"
	"github.com/CodeAbbas/london-bus-time-checker/internal/core/ports"
)

// ArrivalService serves live arrival predictions and vehicle lookups.
type ArrivalService struct {
	src   ports.TransitSource
	cache ports.CacheService
}

// NewArrivalService creates a new ArrivalService.
func NewArrivalService(src ports.TransitSource, cache ports.CacheService) *ArrivalService {
	return &ArrivalService{src: src, cache: cache}
}

// ForStop returns arrival predictions for a stop, soonest first. Results
// are cached only briefly; predictions go stale in seconds.
func (s *ArrivalService) ForStop(ctx context.Context, stopID string) ([]domain.Arrival, error) {
	if stopID == "" {
		return nil, fmt.Errorf("stop id must not be empty")
	}

	cacheKey := "arrivals:" + stopID
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var arrivals []domain.Arrival
			if err := json.Unmarshal(data, &arrivals); err == nil {
				return arrivals, nil
			}
		}
	}

	arrivals, err := s.src.StopArrivals(ctx, stopID)
	if err != nil {
		return nil, err
	}

	sort.Slice(arrivals, func(i, j int) bool {
		return arrivals[i].TimeToStation < arrivals[j].TimeToStation
	})

	if s.cache != nil {
		if data, err := json.Marshal(arrivals); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 15)
		}
	}
	return arrivals, nil
}

// Vehicle returns the live position of a single vehicle.
func (s *ArrivalService) Vehicle(ctx context.Context, vehicleID string) (*domain.VehiclePosition, error) {
	if vehicleID == "" {
		return nil, fmt.Errorf("vehicle id must not be empty")
	}
	return s.src.VehiclePosition(ctx, vehicleID)
}
