// Package authz tracks which rooms a session has unlocked. Grants live only
// as long as the session: they are never written to the primary store, and a
// logout or expiry drops them wholesale.
package authz

import (
	"context"

	"github.com/google/uuid"

	"github.com/PedroBarbosa73/chat-app/internal/models"
)

// Store is the per-session authorized room set.
//
// Authorized re-derives from the room's current state rather than any
// cached decision: a public room is open to every session, including rooms
// that were private when the session last looked. Clearing a room's password
// therefore retroactively opens it to sessions that never password-checked.
type Store interface {
	// Grant adds roomID to the session's authorized set. Idempotent.
	Grant(ctx context.Context, sessionID string, roomID uuid.UUID) error

	// Authorized reports whether the session may read and write the room.
	Authorized(ctx context.Context, sessionID string, room *models.Room) (bool, error)

	// Revoke drops the session's entire authorized set (logout).
	Revoke(ctx context.Context, sessionID string) error
}
