package ports

import (
	"context"

	"github.com/CodeAbbas/london-bus-time-checker/internal/core/domain"
)

// FavoritesRepository persists the user's saved stops. Kept behind a port
// so the capability is injected rather than reached for ambiently.
type FavoritesRepository interface {
	Add(ctx context.Context, fav *domain.Favorite) error
	Remove(ctx context.Context, stopID string) error
	List(ctx context.Context) ([]domain.Favorite, error)
	Get(ctx context.Context, stopID string) (*domain.Favorite, error)
}
