package tfl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/CodeAbbas/london-bus-time-checker/internal/core/domain"
	"github.com/CodeAbbas/london-bus-time-checker/internal/pkg/geospatial"
	"github.com/CodeAbbas/london-bus-time-checker/internal/pkg/metrics"
)

const (
	// DefaultBaseURL is the public TfL Unified API endpoint.
	DefaultBaseURL = "https://api.tfl.gov.uk"

	defaultTimeout = 10 * time.Second

	busStopTypes = "NaptanPublicBusCoachTram"
	busModes     = "bus"
)

// Client implements ports.TransitSource against the TfL Unified API.
type Client struct {
	baseURL string
	appKey  string
	http    *http.Client
}

// New creates a TfL API client. appKey may be empty; TfL serves anonymous
// requests at a lower rate limit.
func New(baseURL, appKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		appKey:  appKey,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// SearchStops finds bus stops matching a free-text query.
func (c *Client) SearchStops(ctx context.Context, query string, limit int) ([]domain.Stop, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("modes", busModes)
	q.Set("maxResults", strconv.Itoa(limit))

	var resp stopPointResponse
	if err := c.get(ctx, "stop_search", "/StopPoint/Search", q, &resp); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	stops := make([]domain.Stop, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if m.Lat == nil || m.Lon == nil {
			continue
		}
		stops = append(stops, domain.Stop{
			ID:        m.ID,
			Name:      m.Name,
			Location:  domain.GeoPoint{Lat: *m.Lat, Lon: *m.Lon},
			FetchedAt: now,
		})
		if len(stops) == limit {
			break
		}
	}
	return stops, nil
}

// StopsNearby lists bus stops within radiusMeters of a point, nearest first.
func (c *Client) StopsNearby(ctx context.Context, lat, lon, radiusMeters float64) ([]domain.Stop, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	q.Set("radius", strconv.FormatFloat(radiusMeters, 'f', 0, 64))
	q.Set("stopTypes", busStopTypes)
	q.Set("modes", busModes)

	var resp stopPointsNearbyResponse
	if err := c.get(ctx, "stops_nearby", "/StopPoint", q, &resp); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	stops := make([]domain.Stop, 0, len(resp.StopPoints))
	for _, sp := range resp.StopPoints {
		if sp.Lat == nil || sp.Lon == nil {
			continue
		}
		lines := make([]string, 0, len(sp.Lines))
		for _, l := range sp.Lines {
			lines = append(lines, l.Name)
		}
		if sp.Distance == nil {
			d := geospatial.Haversine(lat, lon, *sp.Lat, *sp.Lon)
			sp.Distance = &d
		}
		stops = append(stops, domain.Stop{
			ID:         sp.NaptanID,
			Name:       sp.CommonName,
			Indicator:  sp.Indicator,
			StopLetter: sp.StopLetter,
			Location:   domain.GeoPoint{Lat: *sp.Lat, Lon: *sp.Lon},
			Lines:      lines,
			Distance:   sp.Distance,
			FetchedAt:  now,
		})
	}
	return stops, nil
}

// StopArrivals returns live arrival predictions for a stop.
func (c *Client) StopArrivals(ctx context.Context, stopID string) ([]domain.Arrival, error) {
	var preds []arrivalPrediction
	if err := c.get(ctx, "stop_arrivals", "/StopPoint/"+url.PathEscape(stopID)+"/Arrivals", nil, &preds); err != nil {
		return nil, err
	}

	arrivals := make([]domain.Arrival, 0, len(preds))
	for _, p := range preds {
		expected, _ := time.Parse(time.RFC3339, p.ExpectedArrival)
		arrivals = append(arrivals, domain.Arrival{
			ID:            p.ID,
			VehicleID:     p.VehicleID,
			LineName:      p.LineName,
			Destination:   p.DestinationName,
			StopID:        p.NaptanID,
			TimeToStation: p.TimeToStation,
			ExpectedAt:    expected,
			Towards:       p.Towards,
		})
	}
	return arrivals, nil
}

// VehiclePosition returns the latest location reading for one vehicle.
// Vehicles without coordinates yield ErrNoPosition.
func (c *Client) VehiclePosition(ctx context.Context, vehicleID string) (*domain.VehiclePosition, error) {
	var readings []vehicleReading
	if err := c.get(ctx, "vehicle_location", "/Vehicle/"+url.PathEscape(vehicleID)+"/Location", nil, &readings); err != nil {
		return nil, err
	}
	for _, r := range readings {
		if r.Lat == nil || r.Lon == nil {
			continue
		}
		vp := &domain.VehiclePosition{
			VehicleID: r.VehicleID,
			LineName:  r.LineName,
			Location:  domain.GeoPoint{Lat: *r.Lat, Lon: *r.Lon},
		}
		if r.Bearing != nil {
			vp.Bearing = *r.Bearing
		}
		if t, err := time.Parse(time.RFC3339, r.Recorded); err == nil {
			vp.Time = t
		} else {
			vp.Time = time.Now().UTC()
		}
		return vp, nil
	}
	return nil, ErrNoPosition
}

// ErrNoPosition is returned when the upstream has no located reading
// for the requested vehicle.
var ErrNoPosition = fmt.Errorf("tfl: vehicle has no position")

// get performs one API call. endpoint is a low-cardinality label for
// metrics; path carries the real request path including any IDs.
func (c *Client) get(ctx context.Context, endpoint, path string, q url.Values, out any) error {
	if q == nil {
		q = url.Values{}
	}
	if c.appKey != "" {
		q.Set("app_key", c.appKey)
	}
	u := c.baseURL + path
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("tfl: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.TfLRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.TfLRequestErrors.WithLabelValues(endpoint).Inc()
		return fmt.Errorf("tfl: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.TfLRequestErrors.WithLabelValues(endpoint).Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("tfl: %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("tfl: decode %s: %w", path, err)
	}
	return nil
}
