package auth

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/PedroBarbosa73/chat-app/internal/chat"
	"github.com/PedroBarbosa73/chat-app/internal/models"
	"github.com/PedroBarbosa73/chat-app/internal/repository"
)

// Session is the authenticated caller attached to a request after the gate
// has let it through.
type Session struct {
	ID   string
	User models.User
}

// Gate validates identity on every inbound operation. A session moves from
// anonymous to authenticated on a successful credential check and back on
// logout or when the identity stops resolving (the user row was deleted
// after the token was issued).
type Gate struct {
	users  repository.UserRepository
	secret string
	logger *zap.Logger
}

func NewGate(users repository.UserRepository, secret string, logger *zap.Logger) *Gate {
	return &Gate{users: users, secret: secret, logger: logger}
}

// RequireAuthenticated parses the session token and re-validates that the
// identity still exists. Every failure, including a storage error during
// the lookup, maps to chat.ErrUnauthenticated: an anonymous caller learns
// nothing about the state of the backend.
func (g *Gate) RequireAuthenticated(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, chat.ErrUnauthenticated
	}

	claims, err := ParseToken(token, g.secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", chat.ErrUnauthenticated, "invalid or expired token")
	}

	user, err := g.users.GetByID(ctx, claims.UserID)
	if err != nil {
		g.logger.Error("identity lookup failed", zap.Error(err))
		return nil, chat.ErrUnauthenticated
	}
	if user == nil {
		return nil, chat.ErrUnauthenticated
	}

	return &Session{ID: claims.SessionID(), User: *user}, nil
}
