package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered identity. The username is the public handle used to
// address direct messages; it is unique and immutable after creation.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Room is a named chat room. IsPrivate and PasswordHash always change
// together: a non-nil hash implies private, a nil hash implies public. The
// two fields are never written independently.
type Room struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	IsPrivate    bool      `json:"is_private"`
	PasswordHash *string   `json:"-"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
}

// Media is the reference to an attachment held in the blob store. The server
// never stores the bytes, only this pointer.
type Media struct {
	Type     string `json:"type"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// Message belongs to exactly one room OR exactly one direct conversation.
// RoomID and Recipient are mutually exclusive: room messages carry a RoomID
// and no Recipient, direct messages the reverse. MessageID is a short
// collision-resistant token that is never reused; the bigserial ID exists
// only as the keyset-pagination tie-break.
type Message struct {
	ID        int64      `json:"-"`
	MessageID string     `json:"message_id"`
	RoomID    *uuid.UUID `json:"room_id,omitempty"`
	Sender    string     `json:"sender"`
	Recipient *string    `json:"recipient,omitempty"`
	Body      string     `json:"body"`
	HasMedia  bool       `json:"has_media"`
	Media     *Media     `json:"media,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Favorite marks a room as a favorite of one user. The (username, room_id)
// pair is unique; the uniqueness constraint doubles as the idempotency guard
// for racing toggles.
type Favorite struct {
	Username  string    `json:"username"`
	RoomID    uuid.UUID `json:"room_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Target addresses a message destination: either a room by ID or a direct
// conversation by the two participant handles. A conversation is derived
// from the unordered pair, never stored as its own entity.
type Target struct {
	RoomID *uuid.UUID
	// UserA/UserB are the conversation participants. Order does not matter;
	// repositories query both directions.
	UserA string
	UserB string
}

func RoomTarget(roomID uuid.UUID) Target {
	return Target{RoomID: &roomID}
}

func ConversationTarget(a, b string) Target {
	return Target{UserA: a, UserB: b}
}

func (t Target) IsRoom() bool {
	return t.RoomID != nil
}
