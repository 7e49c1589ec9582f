package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/PedroBarbosa73/chat-app/internal/auth"
	"github.com/PedroBarbosa73/chat-app/internal/chat"
	"github.com/PedroBarbosa73/chat-app/internal/presence"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
	sendBuffer     = 256
)

var errBufferFull = errors.New("send buffer full")

// envelope is the frame shape in both directions: an event name plus a
// JSON payload.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// joinRequest is the inbound payload for "join" and "leave" frames.
type joinRequest struct {
	RoomID string `json:"room_id"`
}

// Client is one live WebSocket connection. It implements presence.Sender:
// pushes are serialized onto a buffered channel drained by the write pump,
// so a slow reader never blocks a publisher — it just starts losing pushes
// once the buffer fills, and catches up through pagination.
type Client struct {
	conn     *websocket.Conn
	send     chan []byte
	closed   atomic.Bool
	connID   string
	session  *auth.Session
	registry *presence.Registry
	rooms    *chat.RoomService
	logger   *zap.Logger
}

func (c *Client) Send(event string, payload any) error {
	if c.closed.Load() {
		return errors.New("connection closed")
	}
	frame, err := json.Marshal(outEnvelope{Event: event, Data: payload})
	if err != nil {
		return err
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return errBufferFull
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.closed.Store(true)
		identity, offline := c.registry.Disconnect(c.connID)
		if offline {
			c.logger.Debug("identity offline", zap.String("username", identity))
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var frame envelope
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		c.handleFrame(frame)
	}
}

// handleFrame processes the inbound control frames: joining and leaving
// room channels. Messages themselves are published over the HTTP API, not
// the socket; the socket is the push path.
func (c *Client) handleFrame(frame envelope) {
	switch frame.Event {
	case "join":
		var req joinRequest
		if err := json.Unmarshal(frame.Data, &req); err != nil {
			return
		}
		roomID, err := uuid.Parse(req.RoomID)
		if err != nil {
			_ = c.Send("error", map[string]string{"error": "invalid room id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()

		// Joining a channel needs the same authorization as reading the
		// room: a private room requires a prior password-checked grant.
		room, err := c.rooms.Require(ctx, c.session.ID, roomID)
		if err != nil {
			_ = c.Send("error", map[string]string{"error": "access denied"})
			return
		}
		c.registry.Subscribe(c.connID, presence.RoomChannel(room.Name))
		_ = c.Send("joined", map[string]string{"room": room.Name})

	case "leave":
		var req joinRequest
		if err := json.Unmarshal(frame.Data, &req); err != nil {
			return
		}
		roomID, err := uuid.Parse(req.RoomID)
		if err != nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()

		room, err := c.rooms.Get(ctx, roomID)
		if err != nil {
			return
		}
		c.registry.Unsubscribe(c.connID, presence.RoomChannel(room.Name))
		_ = c.Send("left", map[string]string{"room": room.Name})
	}
}
