package chat

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/PedroBarbosa73/chat-app/internal/models"
	"github.com/PedroBarbosa73/chat-app/internal/presence"
	"github.com/PedroBarbosa73/chat-app/internal/repository"
)

// EventNewMessage is pushed to every subscriber of the target's channel(s)
// when a message is published.
const EventNewMessage = "new_message"

// PushEvent is the wire payload of a message push. Exactly one of Room or
// Recipient is set, mirroring the message's addressing.
type PushEvent struct {
	MessageID string        `json:"message_id"`
	Room      *string       `json:"room,omitempty"`
	Recipient *string       `json:"recipient,omitempty"`
	Sender    string        `json:"sender"`
	Body      *string       `json:"body"`
	Media     *models.Media `json:"media"`
	CreatedAt time.Time     `json:"created_at"`
}

// Presence is the subscriber-set view the delivery engine fans out through.
type Presence interface {
	ChannelMembers(channel string) []presence.Sender
}

// Delivery combines persistence and push: a published message is appended
// to the store first, then pushed to every connection currently subscribed
// to the relevant channel. The store is the authoritative record — a client
// that misses the push sees the message on its next page read.
type Delivery struct {
	messages *MessageService
	rooms    repository.RoomRepository
	registry Presence
	logger   *zap.Logger
}

func NewDelivery(messages *MessageService, rooms repository.RoomRepository, registry Presence, logger *zap.Logger) *Delivery {
	return &Delivery{
		messages: messages,
		rooms:    rooms,
		registry: registry,
		logger:   logger,
	}
}

// Publish appends the message and fans it out. If persistence fails nothing
// is pushed and the error is returned untouched. Push failures to individual
// connections are logged and swallowed: delivery is at-most-once best-effort
// per connection, never rolled back.
func (d *Delivery) Publish(ctx context.Context, target models.Target, sender, body string, media *models.Media) (*models.Message, error) {
	msg, err := d.messages.Append(ctx, target, sender, body, media)
	if err != nil {
		return nil, err
	}

	event := PushEvent{
		MessageID: msg.MessageID,
		Sender:    msg.Sender,
		Media:     msg.Media,
		CreatedAt: msg.CreatedAt,
	}
	if msg.Body != "" {
		event.Body = &msg.Body
	}

	channels, err := d.channelsFor(ctx, msg, &event)
	if err != nil {
		// The message is persisted; the room lookup failing only costs the
		// live push. Readers still see it via pagination.
		d.logger.Warn("fan-out channel resolution failed",
			zap.String("message_id", msg.MessageID),
			zap.Error(err),
		)
		return msg, nil
	}

	for _, channel := range channels {
		for _, member := range d.registry.ChannelMembers(channel) {
			if err := member.Send(EventNewMessage, event); err != nil {
				d.logger.Warn("push failed",
					zap.String("message_id", msg.MessageID),
					zap.String("channel", channel),
					zap.Error(err),
				)
			}
		}
	}
	return msg, nil
}

// channelsFor resolves the fan-out channels: the room's channel for room
// messages, both participants' inbox channels for direct ones.
func (d *Delivery) channelsFor(ctx context.Context, msg *models.Message, event *PushEvent) ([]string, error) {
	if msg.RoomID != nil {
		room, err := d.rooms.GetByID(ctx, *msg.RoomID)
		if err != nil {
			return nil, err
		}
		if room == nil {
			return nil, ErrNotFound
		}
		event.Room = &room.Name
		return []string{presence.RoomChannel(room.Name)}, nil
	}

	event.Recipient = msg.Recipient
	return []string{
		presence.UserChannel(msg.Sender),
		presence.UserChannel(*msg.Recipient),
	}, nil
}
