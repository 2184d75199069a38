package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/CodeAbbas/london-bus-time-checker/internal/core/domain"
)

// FavoritesRepo implements ports.FavoritesRepository with pgx.
type FavoritesRepo struct {
	db *DB
}

// NewFavoritesRepo creates a new FavoritesRepo.
func NewFavoritesRepo(db *DB) *FavoritesRepo {
	return &FavoritesRepo{db: db}
}

// Add saves a favorite. Saving an already-saved stop is a no-op.
func (r *FavoritesRepo) Add(ctx context.Context, fav *domain.Favorite) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO favorites (id, stop_id, label, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (stop_id) DO NOTHING
	`, fav.ID, fav.StopID, fav.Label)
	return err
}

// Remove deletes a favorite by stop id. Removing an unknown stop is a no-op.
func (r *FavoritesRepo) Remove(ctx context.Context, stopID string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM favorites WHERE stop_id = $1`, stopID)
	return err
}

// List returns all favorites, oldest first.
func (r *FavoritesRepo) List(ctx context.Context) ([]domain.Favorite, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, stop_id, COALESCE(label, ''), created_at
		FROM favorites
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var favs []domain.Favorite
	for rows.Next() {
		var f domain.Favorite
		if err := rows.Scan(&f.ID, &f.StopID, &f.Label, &f.CreatedAt); err != nil {
			return nil, err
		}
		favs = append(favs, f)
	}
	return favs, rows.Err()
}

// Get returns the favorite for a stop, or nil when the stop is not saved.
func (r *FavoritesRepo) Get(ctx context.Context, stopID string) (*domain.Favorite, error) {
	var f domain.Favorite
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, stop_id, COALESCE(label, ''), created_at
		FROM favorites WHERE stop_id = $1
	`, stopID).Scan(&f.ID, &f.StopID, &f.Label, &f.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}
