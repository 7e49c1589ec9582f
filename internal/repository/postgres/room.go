package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PedroBarbosa73/chat-app/internal/models"
)

type RoomStore struct {
	pool *pgxpool.Pool
}

func NewRoomStore(pool *pgxpool.Pool) *RoomStore {
	return &RoomStore{pool: pool}
}

// Create inserts the room in one statement. There is deliberately no
// existence pre-check: under a race between two identical creations the
// unique constraint on name decides the winner, and the loser gets a
// unique-violation error the service maps to Conflict.
//
// is_private is computed from the hash inside the statement so the privacy
// flag and the credential can never disagree.
func (s *RoomStore) Create(ctx context.Context, name string, passwordHash *string, createdBy string) (*models.Room, error) {
	query := `
		INSERT INTO rooms (id, name, is_private, password_hash, created_by, created_at)
		VALUES (gen_random_uuid(), $1, $2 IS NOT NULL, $2, $3, now())
		RETURNING id, name, is_private, password_hash, created_by, created_at`

	var r models.Room
	err := s.pool.QueryRow(ctx, query, name, passwordHash, createdBy).Scan(
		&r.ID,
		&r.Name,
		&r.IsPrivate,
		&r.PasswordHash,
		&r.CreatedBy,
		&r.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("insert room: %w", err)
	}
	return &r, nil
}

func (s *RoomStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	query := `
		SELECT id, name, is_private, password_hash, created_by, created_at
		FROM rooms
		WHERE id = $1`

	return s.scanOne(ctx, query, id)
}

func (s *RoomStore) GetByName(ctx context.Context, name string) (*models.Room, error) {
	query := `
		SELECT id, name, is_private, password_hash, created_by, created_at
		FROM rooms
		WHERE name = $1`

	return s.scanOne(ctx, query, name)
}

func (s *RoomStore) scanOne(ctx context.Context, query string, arg any) (*models.Room, error) {
	var r models.Room
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&r.ID,
		&r.Name,
		&r.IsPrivate,
		&r.PasswordHash,
		&r.CreatedBy,
		&r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get room: %w", err)
	}
	return &r, nil
}

func (s *RoomStore) List(ctx context.Context) ([]models.Room, error) {
	query := `
		SELECT id, name, is_private, password_hash, created_by, created_at
		FROM rooms
		ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	rooms := make([]models.Room, 0)
	for rows.Next() {
		var r models.Room
		if err := rows.Scan(
			&r.ID,
			&r.Name,
			&r.IsPrivate,
			&r.PasswordHash,
			&r.CreatedBy,
			&r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}

	return rooms, nil
}

// SetPassword writes password_hash and is_private in one UPDATE so the
// invariant is_private == (password_hash IS NOT NULL) holds after every
// commit.
func (s *RoomStore) SetPassword(ctx context.Context, id uuid.UUID, passwordHash *string) error {
	query := `
		UPDATE rooms
		SET password_hash = $2, is_private = $2 IS NOT NULL
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("set room password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes the room. Messages and favorites reference rooms with
// ON DELETE CASCADE, so one statement removes the whole subtree.
func (s *RoomStore) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM rooms WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
