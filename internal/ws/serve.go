package ws

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/PedroBarbosa73/chat-app/internal/auth"
	"github.com/PedroBarbosa73/chat-app/internal/chat"
	"github.com/PedroBarbosa73/chat-app/internal/presence"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades authenticated requests into registered realtime
// connections.
type Handler struct {
	gate     *auth.Gate
	registry *presence.Registry
	rooms    *chat.RoomService
	logger   *zap.Logger
}

func NewHandler(gate *auth.Gate, registry *presence.Registry, rooms *chat.RoomService, logger *zap.Logger) *Handler {
	return &Handler{gate: gate, registry: registry, rooms: rooms, logger: logger}
}

// Serve handles GET /v1/ws. Browsers cannot set headers on WebSocket
// dials, so the token is also accepted as a query parameter.
func (h *Handler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		header := c.GetHeader("Authorization")
		if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			token = parts[1]
		}
	}

	session, err := h.gate.RequireAuthenticated(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the handshake error.
		return
	}

	client := &Client{
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		session:  session,
		registry: h.registry,
		rooms:    h.rooms,
		logger:   h.logger,
	}
	client.connID = h.registry.Connect(session.User.Username, client)

	h.logger.Info("realtime connection opened",
		zap.String("username", session.User.Username),
		zap.String("conn_id", client.connID),
	)

	go client.writePump()
	client.readPump()
}
