package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/CodeAbbas/london-bus-time-checker/internal/core/domain"
	"github.com/CodeAbbas/london-bus-time-checker/internal/core/mapengine"
	"github.com/CodeAbbas/london-bus-time-checker/internal/core/usecases"
	"github.com/CodeAbbas/london-bus-time-checker/internal/pkg/geospatial"
	"github.com/CodeAbbas/london-bus-time-checker/internal/pkg/metrics"
)

// SearchStopsHandler performs text search on stop names via the upstream API.
func SearchStopsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := strings.TrimSpace(c.Query("q"))
		if query == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(query) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}
		limit := c.QueryInt("limit", 20)

		stops, err := deps.Stops.Search(c.UserContext(), query, limit)
		if errors.Is(err, usecases.ErrSuperseded) {
			metrics.SearchesSuperseded.Inc()
			return errConflict(c, "search superseded by a newer request")
		}
		if err != nil {
			return errInternal(c, err.Error())
		}

		return c.JSON(stops)
	}
}

// NearbyStopsHandler returns stops within a radius of a point, nearest first.
func NearbyStopsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		radius := c.QueryFloat("radius", 500)

		if lat == 0 && lon == 0 {
			return errBadRequest(c, "lat and lon are required")
		}

		stops, err := deps.Stops.Nearby(c.UserContext(), lat, lon, radius)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		// Offset/limit pagination over the distance-ordered list
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 50)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 200 {
			limit = 50
		}

		total := len(stops)
		if offset >= total {
			stops = nil
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			stops = stops[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(PaginatedResponse{Data: stops, Pagination: pg})
	}
}

// StopArrivalsHandler returns live arrival predictions for a stop, sorted by ETA.
func StopArrivalsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "stop id is required")
		}
		arrivals, err := deps.Arrivals.ForStop(c.UserContext(), id)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(arrivals)
	}
}

// LegacyArrivalsHandler serves the pre-v1 arrivals shape that took the stop
// as a query parameter. Kept for old clients behind a Deprecation header.
func LegacyArrivalsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Query("stop")
		if id == "" {
			return errBadRequest(c, "stop query parameter is required")
		}
		arrivals, err := deps.Arrivals.ForStop(c.UserContext(), id)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(arrivals)
	}
}

// GetVehicleHandler returns the live position of one vehicle.
func GetVehicleHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "vehicle id is required")
		}
		vp, err := deps.Arrivals.Vehicle(c.UserContext(), id)
		if err != nil {
			return errNotFound(c, "vehicle not found or has no position")
		}
		return c.JSON(vp)
	}
}

// ListFavoritesHandler returns all saved stops.
func ListFavoritesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		favs, err := deps.Favorites.List(c.UserContext())
		if err != nil {
			return errInternal(c, err.Error())
		}
		if favs == nil {
			favs = []domain.Favorite{}
		}
		return c.JSON(favs)
	}
}

// PutFavoriteHandler saves a stop. Saving an already-saved stop is a no-op
// and returns the existing favorite.
func PutFavoriteHandler(deps *Dependencies) fiber.Handler {
	type body struct {
		Label string `json:"label"`
	}
	return func(c *fiber.Ctx) error {
		stopID := c.Params("stopID")
		if stopID == "" {
			return errBadRequest(c, "stop id is required")
		}

		var b body
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&b); err != nil {
				return errBadRequest(c, "invalid request body")
			}
		}

		fav, err := deps.Favorites.Add(c.UserContext(), stopID, b.Label)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(fav)
	}
}

// DeleteFavoriteHandler removes a saved stop.
func DeleteFavoriteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stopID := c.Params("stopID")
		if stopID == "" {
			return errBadRequest(c, "stop id is required")
		}
		if err := deps.Favorites.Remove(c.UserContext(), stopID); err != nil {
			return errInternal(c, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// tilePlacementResp is one positioned tile in a map/tiles response.
type tilePlacementResp struct {
	X       int     `json:"x"`
	Y       int     `json:"y"`
	Z       int     `json:"z"`
	ScreenX float64 `json:"screen_x"`
	ScreenY float64 `json:"screen_y"`
	URL     string  `json:"url"`
}

// markerResp is one projected marker in a map/tiles response.
type markerResp struct {
	ID      string  `json:"id"`
	Label   string  `json:"label,omitempty"`
	Kind    string  `json:"kind"`
	ScreenX float64 `json:"screen_x"`
	ScreenY float64 `json:"screen_y"`
	Layer   int     `json:"layer"`
}

// MapTilesHandler computes the tile grid and optional stop markers for a
// viewport, for thin clients that do not carry the projection math.
func MapTilesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cfg := deps.MapCfg

		lat := c.QueryFloat("lat", cfg.DefaultCenter.Lat)
		lon := c.QueryFloat("lon", cfg.DefaultCenter.Lon)
		zoom := c.QueryInt("zoom", cfg.DefaultZoom)
		width := c.QueryInt("width", 800)
		height := c.QueryInt("height", 600)

		if width <= 0 || width > 4096 || height <= 0 || height > 4096 {
			return errBadRequest(c, "width and height must be between 1 and 4096")
		}

		v := mapengine.NewViewport(cfg)
		v.SetCenter(domain.GeoPoint{Lat: lat, Lon: lon})
		v.SetZoom(zoom)
		size := mapengine.Size{Width: width, Height: height}

		tiles := mapengine.TileGrid(v, size)
		tileResp := make([]tilePlacementResp, 0, len(tiles))
		for _, tp := range tiles {
			tileResp = append(tileResp, tilePlacementResp{
				X:       tp.Tile.X,
				Y:       tp.Tile.Y,
				Z:       tp.Tile.Z,
				ScreenX: tp.Screen.X,
				ScreenY: tp.Screen.Y,
				URL:     mapengine.TileURL(deps.TileURL, tp.Tile),
			})
		}

		resp := fiber.Map{
			"center": v.Center,
			"zoom":   v.Zoom,
			"tiles":  tileResp,
		}

		// markers=stops projects nearby stops through the same engine.
		// The search radius is the distance from the center to a viewport
		// corner, so every visible stop is covered.
		if c.Query("markers") == "stops" {
			corner := mapengine.ScreenToGeo(mapengine.ScreenPoint{X: 0, Y: 0}, v, size)
			radius := geospatial.Haversine(v.Center.Lat, v.Center.Lon, corner.Lat, corner.Lon)
			if radius > 10000 {
				radius = 10000
			}
			stops, err := deps.Stops.Nearby(c.UserContext(), v.Center.Lat, v.Center.Lon, radius)
			if err != nil {
				return errInternal(c, err.Error())
			}
			entities := make([]domain.MapEntity, 0, len(stops))
			for _, s := range stops {
				entities = append(entities, domain.StopEntity(s, false))
			}
			markers := mapengine.ProjectMarkers(entities, v, size)
			markerOut := make([]markerResp, 0, len(markers))
			for _, m := range markers {
				markerOut = append(markerOut, markerResp{
					ID:      m.Entity.ID,
					Label:   m.Entity.Label,
					Kind:    "stop",
					ScreenX: m.Screen.X,
					ScreenY: m.Screen.Y,
					Layer:   m.Layer,
				})
			}
			resp["markers"] = markerOut
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(resp)
	}
}
