package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PedroBarbosa73/chat-app/internal/models"
)

type FavoriteStore struct {
	pool *pgxpool.Pool
}

func NewFavoriteStore(pool *pgxpool.Pool) *FavoriteStore {
	return &FavoriteStore{pool: pool}
}

// Add inserts the pair and lets the primary key decide races: two
// concurrent favorites of the same room produce exactly one row, the loser
// sees a unique violation that callers fold into "already favorited".
func (s *FavoriteStore) Add(ctx context.Context, username string, roomID uuid.UUID) error {
	query := `
		INSERT INTO favorites (username, room_id, created_at)
		VALUES ($1, $2, now())`

	if _, err := s.pool.Exec(ctx, query, username, roomID); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

func (s *FavoriteStore) Remove(ctx context.Context, username string, roomID uuid.UUID) error {
	query := `
		DELETE FROM favorites
		WHERE username = $1 AND room_id = $2`

	if _, err := s.pool.Exec(ctx, query, username, roomID); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

func (s *FavoriteStore) Exists(ctx context.Context, username string, roomID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM favorites
			WHERE username = $1 AND room_id = $2
		)`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, username, roomID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return exists, nil
}

func (s *FavoriteStore) ListByUser(ctx context.Context, username string) ([]models.Favorite, error) {
	query := `
		SELECT username, room_id, created_at
		FROM favorites
		WHERE username = $1
		ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	favorites := make([]models.Favorite, 0)
	for rows.Next() {
		var f models.Favorite
		if err := rows.Scan(&f.Username, &f.RoomID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		favorites = append(favorites, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorites: %w", err)
	}

	return favorites, nil
}
