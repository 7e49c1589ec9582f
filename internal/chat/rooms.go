package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/PedroBarbosa73/chat-app/internal/authz"
	"github.com/PedroBarbosa73/chat-app/internal/models"
	"github.com/PedroBarbosa73/chat-app/internal/repository"
	"github.com/PedroBarbosa73/chat-app/internal/repository/postgres"
)

// RoomService is the room directory: identity, privacy, and password-gated
// access for rooms.
type RoomService struct {
	rooms    repository.RoomRepository
	grants   authz.Store
	verifier CredentialVerifier
	admin    string
	logger   *zap.Logger
}

func NewRoomService(rooms repository.RoomRepository, grants authz.Store, verifier CredentialVerifier, admin string, logger *zap.Logger) *RoomService {
	return &RoomService{
		rooms:    rooms,
		grants:   grants,
		verifier: verifier,
		admin:    admin,
		logger:   logger,
	}
}

// Create makes a new room. Privacy is derived from the password: a non-empty
// password yields a private room with a stored hash, an empty one a public
// room with no credential. Names are case-sensitive and must be unique; the
// race between two identical creations is settled by the storage constraint
// and the loser gets ErrConflict.
func (s *RoomService) Create(ctx context.Context, name, password, createdBy string) (*models.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: room name is required", ErrValidation)
	}

	var passwordHash *string
	if password != "" {
		digest, err := s.verifier.Hash(password)
		if err != nil {
			return nil, fmt.Errorf("hash room password: %w", err)
		}
		passwordHash = &digest
	}

	room, err := s.rooms.Create(ctx, name, passwordHash, createdBy)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: room name %q is taken", ErrConflict, name)
		}
		return nil, err
	}

	s.logger.Info("room created",
		zap.String("room", room.Name),
		zap.Bool("private", room.IsPrivate),
		zap.String("created_by", createdBy),
	)
	return room, nil
}

func (s *RoomService) Get(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	room, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, fmt.Errorf("%w: room", ErrNotFound)
	}
	return room, nil
}

func (s *RoomService) List(ctx context.Context) ([]models.Room, error) {
	return s.rooms.List(ctx)
}

// Delete removes a room and, via cascading storage constraints, all of its
// messages and favorites. Only the administrative identity may delete.
func (s *RoomService) Delete(ctx context.Context, id uuid.UUID, requester string) error {
	if requester != s.admin {
		return fmt.Errorf("%w: only %s may delete rooms", ErrUnauthorized, s.admin)
	}

	if err := s.rooms.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: room", ErrNotFound)
		}
		return err
	}

	s.logger.Info("room deleted", zap.String("room_id", id.String()))
	return nil
}

// SetPassword rotates or clears a room's credential. The privacy flag moves
// with it atomically: setting a password makes the room private, clearing it
// makes the room public — and a now-public room is readable by every
// session, including ones that never password-checked.
func (s *RoomService) SetPassword(ctx context.Context, id uuid.UUID, requester, password string) error {
	room, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if requester != room.CreatedBy && requester != s.admin {
		return fmt.Errorf("%w: not the room owner", ErrUnauthorized)
	}

	var passwordHash *string
	if password != "" {
		digest, err := s.verifier.Hash(password)
		if err != nil {
			return fmt.Errorf("hash room password: %w", err)
		}
		passwordHash = &digest
	}

	if err := s.rooms.SetPassword(ctx, id, passwordHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: room", ErrNotFound)
		}
		return err
	}
	return nil
}

// CheckPassword applies the room's gate: public rooms admit anyone, private
// rooms admit only a matching password and always reject an empty one.
func (s *RoomService) CheckPassword(room *models.Room, password string) bool {
	if !room.IsPrivate {
		return true
	}
	if password == "" || room.PasswordHash == nil {
		return false
	}
	return s.verifier.Verify(password, *room.PasswordHash)
}

// Join password-checks the session into a room and records the grant. The
// denial is uniform on purpose: a missing room and a wrong password are both
// ErrUnauthorized, so probing cannot reveal which private rooms exist.
func (s *RoomService) Join(ctx context.Context, sessionID string, roomID uuid.UUID, password string) (*models.Room, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil || !s.CheckPassword(room, password) {
		return nil, fmt.Errorf("%w: access denied", ErrUnauthorized)
	}

	if err := s.grants.Grant(ctx, sessionID, room.ID); err != nil {
		return nil, err
	}
	return room, nil
}

// Require resolves the room and checks that the session may access it. The
// authorized set only matters for rooms that are private right now; a room
// whose password was cleared is open regardless of past grants.
func (s *RoomService) Require(ctx context.Context, sessionID string, roomID uuid.UUID) (*models.Room, error) {
	room, err := s.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}

	ok, err := s.grants.Authorized(ctx, sessionID, room)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: access denied", ErrUnauthorized)
	}
	return room, nil
}
