package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/CodeAbbas/london-bus-time-checker/internal/core/domain"
	"github.com/CodeAbbas/london-bus-time-checker/internal/core/ports"
)

// ErrSuperseded is returned when a newer search replaced this one before
// it finished. The transport request is aborted, not just its result
// dropped, so type-ahead traffic never piles up against the upstream API.
var ErrSuperseded = errors.New("superseded by a newer search")

// StopService handles stop search and nearby lookups over the transit
// source, with read-through caching and last-request-wins search.
type StopService struct {
	src           ports.TransitSource
	cache         ports.CacheService
	searchTimeout time.Duration

	mu           sync.Mutex
	gen          uint64
	cancelActive context.CancelFunc
}

// NewStopService creates a new StopService. searchTimeout bounds each
// upstream search; zero means the 5s default.
func NewStopService(src ports.TransitSource, cache ports.CacheService, searchTimeout time.Duration) *StopService {
	if searchTimeout <= 0 {
		searchTimeout = 5 * time.Second
	}
	return &StopService{src: src, cache: cache, searchTimeout: searchTimeout}
}

// Search looks up stops by name. A new call aborts any search still in
// flight; the aborted call returns ErrSuperseded.
func (s *StopService) Search(ctx context.Context, query string, limit int) ([]domain.Stop, error) {
	if query == "" {
		return nil, fmt.Errorf("search query must not be empty")
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	cacheKey := fmt.Sprintf("stops:search:%s:%d", query, limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var stops []domain.Stop
			if err := json.Unmarshal(data, &stops); err == nil {
				return stops, nil
			}
		}
	}

	sctx, cancel := context.WithTimeout(ctx, s.searchTimeout)
	defer cancel()

	s.mu.Lock()
	if s.cancelActive != nil {
		s.cancelActive()
	}
	s.cancelActive = cancel
	s.gen++
	myGen := s.gen
	s.mu.Unlock()

	stops, err := s.src.SearchStops(sctx, query, limit)

	s.mu.Lock()
	superseded := s.gen != myGen
	if !superseded {
		s.cancelActive = nil
	}
	s.mu.Unlock()

	if superseded {
		// A newer search started while ours was in flight; its answer is
		// the one the caller wants now.
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(stops); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 300)
		}
	}
	return stops, nil
}

// Nearby returns stops within radiusMeters of the given point, cached for
// five minutes since the stop network changes rarely.
func (s *StopService) Nearby(ctx context.Context, lat, lon, radiusMeters float64) ([]domain.Stop, error) {
	if radiusMeters <= 0 || radiusMeters > 10000 {
		return nil, fmt.Errorf("radius must be between 1 and 10000 meters, got %v", radiusMeters)
	}

	cacheKey := fmt.Sprintf("stops:nearby:%.4f:%.4f:%.0f", lat, lon, radiusMeters)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var stops []domain.Stop
			if err := json.Unmarshal(data, &stops); err == nil {
				return stops, nil
			}
		}
	}

	stops, err := s.src.StopsNearby(ctx, lat, lon, radiusMeters)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(stops); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 300)
		}
	}
	return stops, nil
}
