package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/CodeAbbas/london-bus-time-checker/internal/adapters/http"
	"github.com/CodeAbbas/london-bus-time-checker/internal/core/domain"
	"github.com/CodeAbbas/london-bus-time-checker/internal/core/mapengine"
	"github.com/CodeAbbas/london-bus-time-checker/internal/core/usecases"
)

// ---- Mock ports ----

type mockTransitSource struct {
	searchStopsFn     func(ctx context.Context, query string, limit int) ([]domain.Stop, error)
	stopsNearbyFn     func(ctx context.Context, lat, lon, radius float64) ([]domain.Stop, error)
	stopArrivalsFn    func(ctx context.Context, stopID string) ([]domain.Arrival, error)
	vehiclePositionFn func(ctx context.Context, vehicleID string) (*domain.VehiclePosition, error)
}

func (m *mockTransitSource) SearchStops(ctx context.Context, query string, limit int) ([]domain.Stop, error) {
	if m.searchStopsFn != nil {
		return m.searchStopsFn(ctx, query, limit)
	}
	return nil, nil
}
func (m *mockTransitSource) StopsNearby(ctx context.Context, lat, lon, radius float64) ([]domain.Stop, error) {
	if m.stopsNearbyFn != nil {
		return m.stopsNearbyFn(ctx, lat, lon, radius)
	}
	return nil, nil
}
func (m *mockTransitSource) StopArrivals(ctx context.Context, stopID string) ([]domain.Arrival, error) {
	if m.stopArrivalsFn != nil {
		return m.stopArrivalsFn(ctx, stopID)
	}
	return nil, nil
}
func (m *mockTransitSource) VehiclePosition(ctx context.Context, vehicleID string) (*domain.VehiclePosition, error) {
	if m.vehiclePositionFn != nil {
		return m.vehiclePositionFn(ctx, vehicleID)
	}
	return nil, nil
}

type mockFavoritesRepo struct {
	items map[string]*domain.Favorite
}

func newMockFavoritesRepo() *mockFavoritesRepo {
	return &mockFavoritesRepo{items: make(map[string]*domain.Favorite)}
}

func (m *mockFavoritesRepo) Add(ctx context.Context, fav *domain.Favorite) error {
	if _, ok := m.items[fav.StopID]; !ok {
		cp := *fav
		m.items[fav.StopID] = &cp
	}
	return nil
}
func (m *mockFavoritesRepo) Remove(ctx context.Context, stopID string) error {
	delete(m.items, stopID)
	return nil
}
func (m *mockFavoritesRepo) List(ctx context.Context) ([]domain.Favorite, error) {
	var out []domain.Favorite
	for _, f := range m.items {
		out = append(out, *f)
	}
	return out, nil
}
func (m *mockFavoritesRepo) Get(ctx context.Context, stopID string) (*domain.Favorite, error) {
	return m.items[stopID], nil
}

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	d := &handler.Dependencies{
		Stops:     usecases.NewStopService(&mockTransitSource{}, nil, 0),
		Arrivals:  usecases.NewArrivalService(&mockTransitSource{}, nil),
		Favorites: usecases.NewFavoritesService(newMockFavoritesRepo()),
		MapCfg:    mapengine.DefaultConfig(),
		TileURL:   "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

// ---- Stop handler tests ----

func TestSearchStops_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Stops = usecases.NewStopService(&mockTransitSource{
			searchStopsFn: func(ctx context.Context, query string, limit int) ([]domain.Stop, error) {
				return []domain.Stop{
					{ID: "490000235Z", Name: "Trafalgar Square", Location: domain.GeoPoint{Lat: 51.5074, Lon: -0.1278}},
				}, nil
			},
		}, nil, 0)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/stops/search?q=trafalgar", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var stops []domain.Stop
	if err := json.NewDecoder(resp.Body).Decode(&stops); err != nil {
		t.Fatal(err)
	}
	if len(stops) != 1 || stops[0].Name != "Trafalgar Square" {
		t.Errorf("stops = %+v", stops)
	}
}

func TestSearchStops_MissingQuery(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/stops/search", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var apiErr struct {
		Status int    `json:"status"`
		Code   string `json:"code"`
	}
	json.NewDecoder(resp.Body).Decode(&apiErr)
	if apiErr.Code != "bad_request" {
		t.Errorf("expected bad_request error, got %s", apiErr.Code)
	}
}

func TestNearbyStops_Success(t *testing.T) {
	dist := 120.5
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Stops = usecases.NewStopService(&mockTransitSource{
			stopsNearbyFn: func(ctx context.Context, lat, lon, radius float64) ([]domain.Stop, error) {
				return []domain.Stop{
					{ID: "490008660N", Name: "Oxford Circus", Distance: &dist,
						Location: domain.GeoPoint{Lat: 51.5152, Lon: -0.1418}},
				}, nil
			},
		}, nil, 0)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/stops/nearby?lat=51.515&lon=-0.142&radius=500", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []domain.Stop `json:"data"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Pagination.Total != 1 || len(result.Data) != 1 {
		t.Fatalf("result = %+v", result)
	}
	if result.Data[0].Distance == nil || *result.Data[0].Distance != 120.5 {
		t.Errorf("distance should pass through in meters, got %v", result.Data[0].Distance)
	}
}

func TestNearbyStops_MissingParams(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/stops/nearby", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestNearbyStops_BadRadius(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/stops/nearby?lat=51.5&lon=-0.1&radius=50000", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Arrival handler tests ----

func TestStopArrivals_SortedByETA(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Arrivals = usecases.NewArrivalService(&mockTransitSource{
			stopArrivalsFn: func(ctx context.Context, stopID string) ([]domain.Arrival, error) {
				return []domain.Arrival{
					{ID: "late", TimeToStation: 600},
					{ID: "soon", TimeToStation: 60},
					{ID: "mid", TimeToStation: 300},
				}, nil
			},
		}, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/stops/490008660N/arrivals", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var arrivals []domain.Arrival
	json.NewDecoder(resp.Body).Decode(&arrivals)
	if len(arrivals) != 3 {
		t.Fatalf("expected 3 arrivals, got %d", len(arrivals))
	}
	if arrivals[0].ID != "soon" || arrivals[2].ID != "late" {
		t.Errorf("arrivals not sorted by ETA: %+v", arrivals)
	}
}

func TestLegacyArrivals_DeprecationHeaders(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/arrivals?stop=490008660N", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Deprecation") != "true" {
		t.Error("expected Deprecation header on legacy route")
	}
	if resp.Header.Get("Sunset") == "" {
		t.Error("expected Sunset header on legacy route")
	}
}

func TestGetVehicle_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Arrivals = usecases.NewArrivalService(&mockTransitSource{
			vehiclePositionFn: func(ctx context.Context, vehicleID string) (*domain.VehiclePosition, error) {
				return &domain.VehiclePosition{
					VehicleID: vehicleID,
					LineName:  "88",
					Location:  domain.GeoPoint{Lat: 51.51, Lon: -0.13},
					Bearing:   182,
				}, nil
			},
		}, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/vehicles/LTZ1000", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var vp domain.VehiclePosition
	json.NewDecoder(resp.Body).Decode(&vp)
	if vp.VehicleID != "LTZ1000" || vp.Bearing != 182 {
		t.Errorf("vehicle = %+v", vp)
	}
}

func TestGetVehicle_NotFound(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Arrivals = usecases.NewArrivalService(&mockTransitSource{
			vehiclePositionFn: func(ctx context.Context, vehicleID string) (*domain.VehiclePosition, error) {
				return nil, context.DeadlineExceeded
			},
		}, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/vehicles/UNKNOWN", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

// ---- Favorites handler tests ----

func TestFavorites_PutListDelete(t *testing.T) {
	app := setupApp(makeDeps())

	// Save
	req := httptest.NewRequest("PUT", "/v1/favorites/490008660N", strings.NewReader(`{"label":"Work"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("put: expected 200, got %d", resp.StatusCode)
	}
	var fav domain.Favorite
	json.NewDecoder(resp.Body).Decode(&fav)
	if fav.StopID != "490008660N" || fav.Label != "Work" {
		t.Errorf("favorite = %+v", fav)
	}

	// List
	req = httptest.NewRequest("GET", "/v1/favorites", nil)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("list: expected 200, got %d", resp.StatusCode)
	}
	var favs []domain.Favorite
	json.NewDecoder(resp.Body).Decode(&favs)
	if len(favs) != 1 {
		t.Fatalf("expected 1 favorite, got %d", len(favs))
	}

	// Delete
	req = httptest.NewRequest("DELETE", "/v1/favorites/490008660N", nil)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 204 {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}

	// List again
	req = httptest.NewRequest("GET", "/v1/favorites", nil)
	resp, _ = app.Test(req, -1)
	favs = nil
	json.NewDecoder(resp.Body).Decode(&favs)
	if len(favs) != 0 {
		t.Errorf("expected no favorites after delete, got %d", len(favs))
	}
}

func TestFavorites_ListEmptyIsArray(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/favorites", nil)
	resp, _ := app.Test(req, -1)
	b := readBody(t, resp.Body)
	if strings.TrimSpace(string(b)) != "[]" {
		t.Errorf("empty favorites should serialize as [], got %s", b)
	}
}

// ---- Map handler tests ----

func TestMapTiles_GridAt512(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/map/tiles?lat=51.5074&lon=-0.1278&zoom=10&width=512&height=512", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Zoom  int `json:"zoom"`
		Tiles []struct {
			X   int    `json:"x"`
			Y   int    `json:"y"`
			Z   int    `json:"z"`
			URL string `json:"url"`
		} `json:"tiles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Zoom != 10 {
		t.Errorf("zoom = %d", result.Zoom)
	}
	// ceil(512/256)+2 = 4 per axis
	if len(result.Tiles) != 16 {
		t.Errorf("expected 16 tiles, got %d", len(result.Tiles))
	}
	for _, tile := range result.Tiles {
		if tile.Z != 10 {
			t.Errorf("tile zoom = %d", tile.Z)
		}
		if !strings.Contains(tile.URL, "tile.openstreetmap.org/10/") {
			t.Errorf("tile url = %s", tile.URL)
		}
	}
}

func TestMapTiles_StopMarkers(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Stops = usecases.NewStopService(&mockTransitSource{
			stopsNearbyFn: func(ctx context.Context, lat, lon, radius float64) ([]domain.Stop, error) {
				return []domain.Stop{
					// at the viewport center
					{ID: "s1", Name: "Centre", Location: domain.GeoPoint{Lat: 51.5074, Lon: -0.1278}},
				}, nil
			},
		}, nil, 0)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/map/tiles?lat=51.5074&lon=-0.1278&zoom=14&width=800&height=600&markers=stops", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Markers []struct {
			ID      string  `json:"id"`
			ScreenX float64 `json:"screen_x"`
			ScreenY float64 `json:"screen_y"`
		} `json:"markers"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result.Markers) != 1 {
		t.Fatalf("expected 1 marker, got %d", len(result.Markers))
	}
	m := result.Markers[0]
	if m.ScreenX < 399 || m.ScreenX > 401 || m.ScreenY < 299 || m.ScreenY > 301 {
		t.Errorf("center stop should project to mid-screen, got (%v, %v)", m.ScreenX, m.ScreenY)
	}
}

func TestMapTiles_BadDimensions(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/map/tiles?width=99999&height=600", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Infra tests ----

func TestHealth(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestReady_NoDatabase(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/ready", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503 without a database, got %d", resp.StatusCode)
	}
}

func TestSecurityHeaders(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected X-Content-Type-Options: nosniff")
	}
	if resp.Header.Get("X-API-Version") == "" {
		t.Error("expected X-API-Version header")
	}
}

// ---- GraphQL tests ----

func TestGraphQL_SearchStops(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Stops = usecases.NewStopService(&mockTransitSource{
			searchStopsFn: func(ctx context.Context, query string, limit int) ([]domain.Stop, error) {
				return []domain.Stop{{ID: "s1", Name: "Trafalgar Square"}}, nil
			},
		}, nil, 0)
	})
	app := setupApp(deps)

	body := `{"query":"{ searchStops(query: \"trafalgar\") { id name } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			SearchStops []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"searchStops"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("graphql errors: %v", result.Errors)
	}
	if len(result.Data.SearchStops) != 1 || result.Data.SearchStops[0].Name != "Trafalgar Square" {
		t.Errorf("data = %+v", result.Data)
	}
}
