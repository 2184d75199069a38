package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/CodeAbbas/london-bus-time-checker/internal/core/domain"
	"github.com/CodeAbbas/london-bus-time-checker/internal/core/ports"
)

// FavoritesService manages the user's saved stops through the injected
// persistence port.
type FavoritesService struct {
	repo ports.FavoritesRepository
}

// NewFavoritesService creates a new FavoritesService.
func NewFavoritesService(repo ports.FavoritesRepository) *FavoritesService {
	return &FavoritesService{repo: repo}
}

// Add saves a stop. Saving an already-saved stop is a no-op rather than
// an error so the toggle button in clients stays idempotent.
func (s *FavoritesService) Add(ctx context.Context, stopID, label string) (*domain.Favorite, error) {
	if stopID == "" {
		return nil, fmt.Errorf("stop id must not be empty")
	}
	if existing, err := s.repo.Get(ctx, stopID); err == nil && existing != nil {
		return existing, nil
	}
	fav := &domain.Favorite{
		ID:        uuid.NewString(),
		StopID:    stopID,
		Label:     label,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Add(ctx, fav); err != nil {
		return nil, fmt.Errorf("add favorite: %w", err)
	}
	return fav, nil
}

// Remove deletes a saved stop by its stop id.
func (s *FavoritesService) Remove(ctx context.Context, stopID string) error {
	if stopID == "" {
		return fmt.Errorf("stop id must not be empty")
	}
	return s.repo.Remove(ctx, stopID)
}

// List returns all saved stops, oldest first.
func (s *FavoritesService) List(ctx context.Context) ([]domain.Favorite, error) {
	return s.repo.List(ctx)
}
