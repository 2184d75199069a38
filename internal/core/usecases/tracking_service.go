package usecases

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/CodeAbbas/london-bus-time-checker/internal/core/domain"
	"github.com/CodeAbbas/london-bus-time-checker/internal/core/ports"
)

// TrackingService runs the live-data poll loop for the currently tracked
// stop. At most one loop is active per instance: tracking a new stop
// cancels the previous loop before the new one starts, so no stale
// results are ever processed after the switch. The latest snapshot is
// swapped atomically; readers see either the old or the new one in full.
type TrackingService struct {
	src          ports.TransitSource
	pub          ports.EventPublisher
	interval     time.Duration
	fetchTimeout time.Duration
	maxVehicles  int

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc

	current atomic.Pointer[domain.Snapshot]
}

// NewTrackingService creates a tracking service. interval defaults to 20s,
// fetchTimeout to 5s; pub may be nil when nothing relays snapshots.
func NewTrackingService(src ports.TransitSource, pub ports.EventPublisher, interval, fetchTimeout time.Duration) *TrackingService {
	if interval <= 0 {
		interval = 20 * time.Second
	}
	if fetchTimeout <= 0 {
		fetchTimeout = 5 * time.Second
	}
	return &TrackingService{
		src:          src,
		pub:          pub,
		interval:     interval,
		fetchTimeout: fetchTimeout,
		maxVehicles:  10,
	}
}

// Track starts polling stopID, replacing any loop already running. The
// first poll fires immediately, then every interval.
func (t *TrackingService) Track(stopID string) {
	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.gen++
	myGen := t.gen
	t.mu.Unlock()

	go t.loop(ctx, stopID, myGen)
}

// Stop cancels the active poll loop, if any.
func (t *TrackingService) Stop() {
	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.gen++
	t.mu.Unlock()
}

// Current returns the latest snapshot, or nil before the first poll.
func (t *TrackingService) Current() *domain.Snapshot {
	return t.current.Load()
}

func (t *TrackingService) loop(ctx context.Context, stopID string, gen uint64) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.pollOnce(ctx, stopID, gen)
	for {
		select {
		case <-ticker.C:
			t.pollOnce(ctx, stopID, gen)
		case <-ctx.Done():
			return
		}
	}
}

// pollOnce fetches one snapshot. Failures surface as an empty snapshot
// for this cycle; the loop itself never stops on an upstream error.
func (t *TrackingService) pollOnce(ctx context.Context, stopID string, gen uint64) {
	fctx, cancel := context.WithTimeout(ctx, t.fetchTimeout)
	defer cancel()

	snap := &domain.Snapshot{StopID: stopID, TakenAt: time.Now()}

	arrivals, err := t.src.StopArrivals(fctx, stopID)
	if err != nil {
		if ctx.Err() != nil {
			return // loop cancelled mid-fetch, discard
		}
		slog.Warn("arrivals poll failed", "stop_id", stopID, "error", err)
		t.store(snap, gen)
		return
	}
	snap.Arrivals = arrivals
	snap.Vehicles = t.fetchVehicles(fctx, arrivals)

	if ctx.Err() != nil {
		return
	}
	t.store(snap, gen)
}

// fetchVehicles resolves positions for the distinct vehicles due at the
// stop, a few at a time. Individual failures just drop that vehicle.
func (t *TrackingService) fetchVehicles(ctx context.Context, arrivals []domain.Arrival) []domain.VehiclePosition {
	seen := make(map[string]bool)
	var ids []string
	for _, a := range arrivals {
		if a.VehicleID == "" || seen[a.VehicleID] {
			continue
		}
		seen[a.VehicleID] = true
		ids = append(ids, a.VehicleID)
		if len(ids) == t.maxVehicles {
			break
		}
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		sem      = make(chan struct{}, 4)
		vehicles []domain.VehiclePosition
	)
	for _, id := range ids {
		wg.Add(1)
		go func(vehicleID string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			vp, err := t.src.VehiclePosition(ctx, vehicleID)
			if err != nil || vp == nil {
				return
			}
			mu.Lock()
			vehicles = append(vehicles, *vp)
			mu.Unlock()
		}(id)
	}
	wg.Wait()
	return vehicles
}

// store publishes and swaps in the snapshot unless a newer loop has taken
// over since this poll started.
func (t *TrackingService) store(snap *domain.Snapshot, gen uint64) {
	t.mu.Lock()
	stale := gen != t.gen
	if !stale {
		t.current.Store(snap)
	}
	t.mu.Unlock()
	if stale {
		return
	}
	if t.pub != nil {
		if err := t.pub.PublishSnapshot(context.Background(), snap); err != nil {
			slog.Warn("snapshot publish failed", "stop_id", snap.StopID, "error", err)
		}
	}
}
