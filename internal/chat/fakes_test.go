package chat

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/PedroBarbosa73/chat-app/internal/models"
	"github.com/PedroBarbosa73/chat-app/internal/repository"
)

// uniqueViolationErr mimics what pgx surfaces when a unique constraint
// fires.
func uniqueViolationErr() error {
	return &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
}

// --- users ---

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserRepo(usernames ...string) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*models.User)}
	for _, name := range usernames {
		r.users[name] = &models.User{ID: uuid.New(), Username: name, CreatedAt: time.Now()}
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, username, passwordHash string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[username]; ok {
		return nil, uniqueViolationErr()
	}
	u := &models.User{ID: uuid.New(), Username: username, PasswordHash: passwordHash, CreatedAt: time.Now()}
	r.users[username] = u
	return u, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			out := *u
			return &out, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (r *fakeUserRepo) List(_ context.Context) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

// --- rooms ---

type fakeRoomRepo struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*models.Room
}

func newFakeRoomRepo() *fakeRoomRepo {
	return &fakeRoomRepo{rooms: make(map[uuid.UUID]*models.Room)}
}

func (r *fakeRoomRepo) Create(_ context.Context, name string, passwordHash *string, createdBy string) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, room := range r.rooms {
		if room.Name == name {
			return nil, uniqueViolationErr()
		}
	}
	room := &models.Room{
		ID:           uuid.New(),
		Name:         name,
		IsPrivate:    passwordHash != nil,
		PasswordHash: passwordHash,
		CreatedBy:    createdBy,
		CreatedAt:    time.Now(),
	}
	r.rooms[room.ID] = room
	out := *room
	return &out, nil
}

func (r *fakeRoomRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, nil
	}
	out := *room
	return &out, nil
}

func (r *fakeRoomRepo) GetByName(_ context.Context, name string) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, room := range r.rooms {
		if room.Name == name {
			out := *room
			return &out, nil
		}
	}
	return nil, nil
}

func (r *fakeRoomRepo) List(_ context.Context) ([]models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, *room)
	}
	return out, nil
}

func (r *fakeRoomRepo) SetPassword(_ context.Context, id uuid.UUID, passwordHash *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return pgx.ErrNoRows
	}
	room.PasswordHash = passwordHash
	room.IsPrivate = passwordHash != nil
	return nil
}

func (r *fakeRoomRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.rooms, id)
	return nil
}

// --- messages ---

type fakeMessageRepo struct {
	mu       sync.Mutex
	nextID   int64
	now      time.Time
	messages []models.Message

	// failCreate makes the next n Create calls fail with failErr.
	failCreate int
	failErr    error
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (r *fakeMessageRepo) Create(_ context.Context, msg *models.Message) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate > 0 {
		r.failCreate--
		return nil, r.failErr
	}
	for _, existing := range r.messages {
		if existing.MessageID == msg.MessageID {
			return nil, uniqueViolationErr()
		}
	}
	r.nextID++
	stored := *msg
	stored.ID = r.nextID
	stored.HasMedia = msg.Media != nil
	// Same timestamp for everything: ordering must fall back to the id
	// tie-break.
	stored.CreatedAt = r.now
	r.messages = append(r.messages, stored)
	out := stored
	return &out, nil
}

func (r *fakeMessageRepo) GetByMessageID(_ context.Context, messageID string) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.MessageID == messageID {
			out := m
			return &out, nil
		}
	}
	return nil, nil
}

func matches(m models.Message, target models.Target) bool {
	if target.IsRoom() {
		return m.RoomID != nil && *m.RoomID == *target.RoomID
	}
	if m.RoomID != nil || m.Recipient == nil {
		return false
	}
	a, b := target.UserA, target.UserB
	return (m.Sender == a && *m.Recipient == b) || (m.Sender == b && *m.Recipient == a)
}

func (r *fakeMessageRepo) ListByTarget(_ context.Context, target models.Target, after repository.PageKey, limit int) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Message
	for _, m := range r.messages {
		if !matches(m, target) {
			continue
		}
		if !after.IsZero() {
			if m.CreatedAt.Before(after.CreatedAt) {
				continue
			}
			if m.CreatedAt.Equal(after.CreatedAt) && m.ID <= after.ID {
				continue
			}
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeMessageRepo) ListWithMedia(_ context.Context) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Message
	for _, m := range r.messages {
		if m.HasMedia {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) RevokeMedia(_ context.Context, messageID string, sentinel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.messages {
		if r.messages[i].MessageID == messageID && r.messages[i].HasMedia {
			r.messages[i].Body = sentinel
			r.messages[i].HasMedia = false
			r.messages[i].Media = nil
		}
	}
	return nil
}

// --- favorites ---

type favKey struct {
	username string
	roomID   uuid.UUID
}

type fakeFavoriteRepo struct {
	mu   sync.Mutex
	rows map[favKey]models.Favorite
}

func newFakeFavoriteRepo() *fakeFavoriteRepo {
	return &fakeFavoriteRepo{rows: make(map[favKey]models.Favorite)}
}

func (r *fakeFavoriteRepo) Add(_ context.Context, username string, roomID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := favKey{username, roomID}
	if _, ok := r.rows[key]; ok {
		return uniqueViolationErr()
	}
	r.rows[key] = models.Favorite{Username: username, RoomID: roomID, CreatedAt: time.Now()}
	return nil
}

func (r *fakeFavoriteRepo) Remove(_ context.Context, username string, roomID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, favKey{username, roomID})
	return nil
}

func (r *fakeFavoriteRepo) Exists(_ context.Context, username string, roomID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rows[favKey{username, roomID}]
	return ok, nil
}

func (r *fakeFavoriteRepo) ListByUser(_ context.Context, username string) ([]models.Favorite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Favorite, 0)
	for key, f := range r.rows {
		if key.username == username {
			out = append(out, f)
		}
	}
	return out, nil
}

// --- blob store ---

type fakeBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (s *fakeBlobStore) Put(_ context.Context, data []byte, _ string, filename string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	url := "fake://" + filename
	s.blobs[url] = data
	return url, nil
}

func (s *fakeBlobStore) Exists(_ context.Context, url string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[url]
	return ok, nil
}

func (s *fakeBlobStore) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, url)
	return nil
}
