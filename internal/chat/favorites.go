package chat

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PedroBarbosa73/chat-app/internal/models"
	"github.com/PedroBarbosa73/chat-app/internal/repository"
	"github.com/PedroBarbosa73/chat-app/internal/repository/postgres"
)

// FavoriteService manages each user's favorite rooms.
type FavoriteService struct {
	favorites repository.FavoriteRepository
	rooms     repository.RoomRepository
	logger    *zap.Logger
}

func NewFavoriteService(favorites repository.FavoriteRepository, rooms repository.RoomRepository, logger *zap.Logger) *FavoriteService {
	return &FavoriteService{favorites: favorites, rooms: rooms, logger: logger}
}

// Toggle flips the favorite state for username x room and returns the new
// state. The add path relies on the pair's uniqueness constraint for
// atomicity: if two toggles race, the losing insert's unique violation is
// read as "already favorited" rather than an error, so the row count stays
// at exactly one.
func (s *FavoriteService) Toggle(ctx context.Context, username string, roomID uuid.UUID) (bool, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return false, err
	}
	if room == nil {
		return false, fmt.Errorf("%w: room", ErrNotFound)
	}

	exists, err := s.favorites.Exists(ctx, username, roomID)
	if err != nil {
		return false, err
	}
	if exists {
		if err := s.favorites.Remove(ctx, username, roomID); err != nil {
			return true, err
		}
		return false, nil
	}

	if err := s.favorites.Add(ctx, username, roomID); err != nil {
		if postgres.IsUniqueViolation(err) {
			return true, nil
		}
		return false, err
	}
	return true, nil
}

func (s *FavoriteService) List(ctx context.Context, username string) ([]models.Favorite, error) {
	return s.favorites.ListByUser(ctx, username)
}
