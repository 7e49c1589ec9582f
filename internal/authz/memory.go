package authz

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/PedroBarbosa73/chat-app/internal/models"
)

// MemoryStore is the process-local Store used in tests and single-node
// deployments without Redis.
type MemoryStore struct {
	mu     sync.RWMutex
	grants map[string]map[uuid.UUID]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{grants: make(map[string]map[uuid.UUID]struct{})}
}

func (s *MemoryStore) Grant(_ context.Context, sessionID string, roomID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.grants[sessionID]
	if !ok {
		set = make(map[uuid.UUID]struct{})
		s.grants[sessionID] = set
	}
	set[roomID] = struct{}{}
	return nil
}

func (s *MemoryStore) Authorized(_ context.Context, sessionID string, room *models.Room) (bool, error) {
	if room == nil {
		return false, nil
	}
	if !room.IsPrivate {
		return true, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.grants[sessionID][room.ID]
	return ok, nil
}

func (s *MemoryStore) Revoke(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.grants, sessionID)
	return nil
}
