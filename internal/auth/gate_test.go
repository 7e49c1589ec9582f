package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/PedroBarbosa73/chat-app/internal/chat"
	"github.com/PedroBarbosa73/chat-app/internal/models"
)

type stubUserRepo struct {
	users   map[uuid.UUID]*models.User
	lookupE error
}

func (r *stubUserRepo) Create(context.Context, string, string) (*models.User, error) {
	return nil, fmt.Errorf("not implemented")
}

func (r *stubUserRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if r.lookupE != nil {
		return nil, r.lookupE
	}
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (r *stubUserRepo) GetByUsername(context.Context, string) (*models.User, error) {
	return nil, nil
}

func (r *stubUserRepo) List(context.Context) ([]models.User, error) {
	return nil, nil
}

func TestRequireAuthenticated(t *testing.T) {
	user := &models.User{ID: uuid.New(), Username: "alice"}
	repo := &stubUserRepo{users: map[uuid.UUID]*models.User{user.ID: user}}
	gate := NewGate(repo, testSecret, zap.NewNop())

	token, err := GenerateToken(user.ID, "alice", testSecret, time.Hour)
	require.NoError(t, err)

	session, err := gate.RequireAuthenticated(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "alice", session.User.Username)
	assert.NotEmpty(t, session.ID)
}

func TestRequireAuthenticatedFailures(t *testing.T) {
	user := &models.User{ID: uuid.New(), Username: "alice"}
	repo := &stubUserRepo{users: map[uuid.UUID]*models.User{user.ID: user}}
	gate := NewGate(repo, testSecret, zap.NewNop())
	ctx := context.Background()

	_, err := gate.RequireAuthenticated(ctx, "")
	assert.ErrorIs(t, err, chat.ErrUnauthenticated, "empty token")

	_, err = gate.RequireAuthenticated(ctx, "garbage")
	assert.ErrorIs(t, err, chat.ErrUnauthenticated, "malformed token")

	forged, err := GenerateToken(user.ID, "alice", "wrong-secret", time.Hour)
	require.NoError(t, err)
	_, err = gate.RequireAuthenticated(ctx, forged)
	assert.ErrorIs(t, err, chat.ErrUnauthenticated, "wrong signature")
}

func TestRequireAuthenticatedDeletedIdentity(t *testing.T) {
	user := &models.User{ID: uuid.New(), Username: "alice"}
	repo := &stubUserRepo{users: map[uuid.UUID]*models.User{user.ID: user}}
	gate := NewGate(repo, testSecret, zap.NewNop())

	token, err := GenerateToken(user.ID, "alice", testSecret, time.Hour)
	require.NoError(t, err)

	// The account goes away while the token is still valid.
	delete(repo.users, user.ID)

	_, err = gate.RequireAuthenticated(context.Background(), token)
	assert.ErrorIs(t, err, chat.ErrUnauthenticated)
}

func TestRequireAuthenticatedStorageError(t *testing.T) {
	user := &models.User{ID: uuid.New(), Username: "alice"}
	repo := &stubUserRepo{
		users:   map[uuid.UUID]*models.User{user.ID: user},
		lookupE: fmt.Errorf("connection refused"),
	}
	gate := NewGate(repo, testSecret, zap.NewNop())

	token, err := GenerateToken(user.ID, "alice", testSecret, time.Hour)
	require.NoError(t, err)

	// A backend failure reads the same as a bad token from outside.
	_, err = gate.RequireAuthenticated(context.Background(), token)
	assert.ErrorIs(t, err, chat.ErrUnauthenticated)
}
