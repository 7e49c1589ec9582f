package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/PedroBarbosa73/chat-app/internal/blob"
	"github.com/PedroBarbosa73/chat-app/internal/models"
	"github.com/PedroBarbosa73/chat-app/internal/repository"
	"github.com/PedroBarbosa73/chat-app/internal/repository/postgres"
	"github.com/PedroBarbosa73/chat-app/internal/retry"
)

// MediaRevokedBody replaces the body of a message whose attachment has been
// administratively removed.
const MediaRevokedBody = "(Media no longer available - System Upgrade)"

const (
	DefaultPageSize = 50
	MaxPageSize     = 100

	// tokenAttempts bounds the append retry loop. Each attempt uses a fresh
	// message token, so a unique-violation collision cannot repeat.
	tokenAttempts = 3
)

// MessageService owns the append-only message log for rooms and direct
// conversations.
type MessageService struct {
	messages repository.MessageRepository
	rooms    repository.RoomRepository
	users    repository.UserRepository
	media    blob.Store
	timeout  time.Duration
	logger   *zap.Logger
}

func NewMessageService(
	messages repository.MessageRepository,
	rooms repository.RoomRepository,
	users repository.UserRepository,
	media blob.Store,
	timeout time.Duration,
	logger *zap.Logger,
) *MessageService {
	return &MessageService{
		messages: messages,
		rooms:    rooms,
		users:    users,
		media:    media,
		timeout:  timeout,
		logger:   logger,
	}
}

// Append validates and persists one message. The target must resolve to an
// existing room or recipient at write time. Transient storage failures are
// retried with backoff and surface as ErrRetryable when exhausted; the
// caller decides whether to try again.
func (s *MessageService) Append(ctx context.Context, target models.Target, sender, body string, media *models.Media) (*models.Message, error) {
	if body == "" && media == nil {
		return nil, fmt.Errorf("%w: message needs a body or an attachment", ErrValidation)
	}

	if err := s.resolveTarget(ctx, target); err != nil {
		return nil, err
	}

	var created *models.Message
	err := retry.Do(ctx, tokenAttempts, 50*time.Millisecond, func(ctx context.Context) error {
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		msg := &models.Message{
			MessageID: NewMessageToken(),
			RoomID:    target.RoomID,
			Sender:    sender,
			Body:      body,
			Media:     media,
		}
		if !target.IsRoom() {
			recipient := target.UserB
			if recipient == sender {
				recipient = target.UserA
			}
			msg.Recipient = &recipient
		}

		out, err := s.messages.Create(cctx, msg)
		if err != nil {
			// Token collision or transient storage trouble: both are worth
			// another attempt with a fresh token.
			if postgres.IsUniqueViolation(err) {
				s.logger.Warn("message token collision, retrying", zap.String("token", msg.MessageID))
			}
			return retry.Transient(err)
		}
		created = out
		return nil
	})
	if err != nil {
		return nil, asRetryable(err)
	}
	return created, nil
}

func (s *MessageService) resolveTarget(ctx context.Context, target models.Target) error {
	if target.IsRoom() {
		room, err := s.rooms.GetByID(ctx, *target.RoomID)
		if err != nil {
			return err
		}
		if room == nil {
			return fmt.Errorf("%w: room does not exist", ErrValidation)
		}
		return nil
	}

	if target.UserA == "" || target.UserB == "" || target.UserA == target.UserB {
		return fmt.Errorf("%w: conversation needs two distinct participants", ErrValidation)
	}
	for _, username := range []string{target.UserA, target.UserB} {
		user, err := s.users.GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("%w: user %q does not exist", ErrValidation, username)
		}
	}
	return nil
}

// Page is one page of a target's log, oldest first.
type Page struct {
	Messages   []models.Message `json:"messages"`
	HasMore    bool             `json:"has_more"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// Page reads up to pageSize messages strictly after cursor. It asks the
// store for one extra row to learn whether more pages follow, and hands out
// a keyset cursor rather than an offset so concurrent appends cannot skip
// or duplicate rows between consecutive pages.
func (s *MessageService) Page(ctx context.Context, target models.Target, cursor string, pageSize int) (*Page, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	after, err := decodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: bad cursor", ErrValidation)
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.messages.ListByTarget(cctx, target, after, pageSize+1)
	if err != nil {
		return nil, asRetryable(err)
	}

	page := &Page{Messages: rows}
	if len(rows) > pageSize {
		page.Messages = rows[:pageSize]
		page.HasMore = true
	}
	if n := len(page.Messages); n > 0 {
		last := page.Messages[n-1]
		page.NextCursor = encodeCursor(repository.PageKey{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

// RevokeMedia clears a message's attachment and replaces the body with the
// sentinel. Idempotent; revoking a message without media is a no-op.
func (s *MessageService) RevokeMedia(ctx context.Context, messageID string) error {
	msg, err := s.messages.GetByMessageID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return fmt.Errorf("%w: message", ErrNotFound)
	}

	if err := s.messages.RevokeMedia(ctx, messageID, MediaRevokedBody); err != nil {
		return err
	}
	s.logger.Info("media revoked", zap.String("message_id", messageID))
	return nil
}

// SweepMissingMedia revokes every media message whose blob no longer exists
// in the store. Returns how many messages were revoked. Blob-store hiccups
// for individual messages are logged and skipped; a missing blob is the only
// thing that triggers a revoke.
func (s *MessageService) SweepMissingMedia(ctx context.Context) (int, error) {
	if s.media == nil {
		return 0, fmt.Errorf("%w: no blob store configured", ErrValidation)
	}

	msgs, err := s.messages.ListWithMedia(ctx)
	if err != nil {
		return 0, asRetryable(err)
	}

	revoked := 0
	for _, msg := range msgs {
		if msg.Media == nil || msg.Media.URL == "" {
			continue
		}
		exists, err := s.media.Exists(ctx, msg.Media.URL)
		if err != nil {
			s.logger.Warn("blob check failed, skipping",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
			continue
		}
		if exists {
			continue
		}
		if err := s.messages.RevokeMedia(ctx, msg.MessageID, MediaRevokedBody); err != nil {
			return revoked, err
		}
		revoked++
	}

	s.logger.Info("media sweep finished", zap.Int("revoked", revoked))
	return revoked, nil
}

// asRetryable folds retry exhaustion and deadline errors into the taxonomy.
func asRetryable(err error) error {
	if errors.Is(err, retry.ErrExhausted) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrRetryable, err)
	}
	return err
}
