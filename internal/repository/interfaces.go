package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/PedroBarbosa73/chat-app/internal/models"
)

// Every method takes a context so request cancellation and the configured
// storage deadline propagate into the driver. Repositories return
// (nil, nil) for lookups that find nothing; translating that into the
// service error taxonomy is the caller's job.

// UserRepository handles identity persistence.
type UserRepository interface {
	// Create inserts a new user. A duplicate username surfaces as a
	// unique-violation error (see postgres.IsUniqueViolation).
	Create(ctx context.Context, username, passwordHash string) (*models.User, error)

	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

// RoomRepository handles room persistence.
type RoomRepository interface {
	// Create inserts a room in a single statement; the unique constraint on
	// name is the backstop against two identical concurrent creations.
	Create(ctx context.Context, name string, passwordHash *string, createdBy string) (*models.Room, error)

	GetByID(ctx context.Context, id uuid.UUID) (*models.Room, error)
	GetByName(ctx context.Context, name string) (*models.Room, error)
	List(ctx context.Context) ([]models.Room, error)

	// SetPassword atomically updates password_hash and is_private together:
	// a non-nil hash makes the room private, nil makes it public.
	SetPassword(ctx context.Context, id uuid.UUID, passwordHash *string) error

	// Delete removes the room; messages and favorites cascade at the
	// storage layer.
	Delete(ctx context.Context, id uuid.UUID) error
}

// PageKey is the keyset cursor for message pagination: strictly after
// (CreatedAt, ID) in ascending order. The zero value means "from the start".
type PageKey struct {
	CreatedAt time.Time
	ID        int64
}

func (k PageKey) IsZero() bool {
	return k.ID == 0 && k.CreatedAt.IsZero()
}

// MessageRepository handles the append-only message log.
type MessageRepository interface {
	// Create appends a message. A message_id collision surfaces as a
	// unique-violation error; the service retries with a fresh token.
	Create(ctx context.Context, msg *models.Message) (*models.Message, error)

	GetByMessageID(ctx context.Context, messageID string) (*models.Message, error)

	// ListByTarget returns up to limit messages for the room or
	// conversation strictly after the keyset cursor, oldest first. Keyset
	// on (created_at, id) keeps concurrent inserts from skipping or
	// duplicating rows across pages.
	ListByTarget(ctx context.Context, target models.Target, after PageKey, limit int) ([]models.Message, error)

	// ListWithMedia returns every message currently flagged as carrying
	// media. Used by the administrative sweep.
	ListWithMedia(ctx context.Context) ([]models.Message, error)

	// RevokeMedia clears the media fields and replaces the body with
	// sentinel. Idempotent: revoking an already-revoked message is a no-op.
	RevokeMedia(ctx context.Context, messageID string, sentinel string) error
}

// FavoriteRepository handles the identity x room favorites.
type FavoriteRepository interface {
	// Add inserts the pair. A duplicate surfaces as a unique-violation
	// error, which callers treat as "already favorited".
	Add(ctx context.Context, username string, roomID uuid.UUID) error

	Remove(ctx context.Context, username string, roomID uuid.UUID) error
	Exists(ctx context.Context, username string, roomID uuid.UUID) (bool, error)
	ListByUser(ctx context.Context, username string) ([]models.Favorite, error)
}
