package http

import (
	"github.com/nats-io/nats.go"

	"github.com/CodeAbbas/london-bus-time-checker/internal/adapters/postgres"
	"github.com/CodeAbbas/london-bus-time-checker/internal/adapters/valkey"
	"github.com/CodeAbbas/london-bus-time-checker/internal/core/mapengine"
	"github.com/CodeAbbas/london-bus-time-checker/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Stops     *usecases.StopService
	Arrivals  *usecases.ArrivalService
	Favorites *usecases.FavoritesService
	MapCfg    mapengine.Config
	TileURL   string
	NATS      *nats.Conn
	DB        *postgres.DB
	Cache     *valkey.Cache
}
