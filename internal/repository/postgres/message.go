package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PedroBarbosa73/chat-app/internal/models"
	"github.com/PedroBarbosa73/chat-app/internal/repository"
)

type MessageStore struct {
	pool *pgxpool.Pool
}

func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

const messageColumns = `id, message_id, room_id, sender, recipient, body,
	has_media, media_type, media_url, media_filename, created_at`

func scanMessage(row pgx.Row) (*models.Message, error) {
	var (
		m         models.Message
		mediaType *string
		mediaURL  *string
		mediaName *string
	)
	err := row.Scan(
		&m.ID,
		&m.MessageID,
		&m.RoomID,
		&m.Sender,
		&m.Recipient,
		&m.Body,
		&m.HasMedia,
		&mediaType,
		&mediaURL,
		&mediaName,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if m.HasMedia && mediaURL != nil {
		m.Media = &models.Media{
			Type:     deref(mediaType),
			URL:      deref(mediaURL),
			Filename: deref(mediaName),
		}
	}
	return &m, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (s *MessageStore) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {
	query := `
		INSERT INTO messages (message_id, room_id, sender, recipient, body,
			has_media, media_type, media_url, media_filename, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		RETURNING ` + messageColumns

	var mediaType, mediaURL, mediaName *string
	if msg.Media != nil {
		mediaType = &msg.Media.Type
		mediaURL = &msg.Media.URL
		mediaName = &msg.Media.Filename
	}

	row := s.pool.QueryRow(ctx, query,
		msg.MessageID,
		msg.RoomID,
		msg.Sender,
		msg.Recipient,
		msg.Body,
		msg.Media != nil,
		mediaType,
		mediaURL,
		mediaName,
	)
	created, err := scanMessage(row)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return created, nil
}

func (s *MessageStore) GetByMessageID(ctx context.Context, messageID string) (*models.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE message_id = $1`

	m, err := scanMessage(s.pool.QueryRow(ctx, query, messageID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get message: %w", err)
	}
	return m, nil
}

// ListByTarget pages through a room's or conversation's log oldest-first.
//
// The cursor is keyset, not offset: "strictly after (created_at, id)".
// Postgres compares the row tuple lexicographically, which matches the
// ORDER BY, so concurrent inserts can never make a row jump between pages —
// a row either sorts after the cursor or it does not.
func (s *MessageStore) ListByTarget(ctx context.Context, target models.Target, after repository.PageKey, limit int) ([]models.Message, error) {
	var (
		where string
		args  []any
	)
	if target.IsRoom() {
		where = `room_id = $1`
		args = []any{*target.RoomID}
	} else {
		// A conversation is the unordered pair, so match both directions.
		where = `room_id IS NULL
			AND ((sender = $1 AND recipient = $2) OR (sender = $2 AND recipient = $1))`
		args = []any{target.UserA, target.UserB}
	}

	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE ` + where
	if !after.IsZero() {
		query += fmt.Sprintf(`
			AND (created_at, id) > ($%d, $%d)`, len(args)+1, len(args)+2)
		args = append(args, after.CreatedAt, after.ID)
	}
	query += fmt.Sprintf(`
		ORDER BY created_at, id
		LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

func (s *MessageStore) ListWithMedia(ctx context.Context) ([]models.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE has_media = true
		ORDER BY created_at, id`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list media messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate media messages: %w", err)
	}

	return messages, nil
}

// RevokeMedia is the one permitted mutation of the append-only log. The
// WHERE has_media guard makes it idempotent: a second revoke matches zero
// rows and changes nothing.
func (s *MessageStore) RevokeMedia(ctx context.Context, messageID string, sentinel string) error {
	query := `
		UPDATE messages
		SET body = $2,
			has_media = false,
			media_type = NULL,
			media_url = NULL,
			media_filename = NULL
		WHERE message_id = $1 AND has_media = true`

	if _, err := s.pool.Exec(ctx, query, messageID, sentinel); err != nil {
		return fmt.Errorf("revoke media: %w", err)
	}
	return nil
}
