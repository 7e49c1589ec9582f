package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PedroBarbosa73/chat-app/internal/chat"
	"github.com/PedroBarbosa73/chat-app/internal/middleware"
	"github.com/PedroBarbosa73/chat-app/internal/models"
)

// MessageHandler covers both room messages and direct conversations. Every
// room operation re-checks authorization against the room's current state,
// so a just-unlocked or just-published room behaves correctly without any
// cache invalidation.
type MessageHandler struct {
	rooms    *chat.RoomService
	messages *chat.MessageService
	delivery *chat.Delivery
	logger   *zap.Logger
}

func NewMessageHandler(rooms *chat.RoomService, messages *chat.MessageService, delivery *chat.Delivery, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{
		rooms:    rooms,
		messages: messages,
		delivery: delivery,
		logger:   logger,
	}
}

type postMessageRequest struct {
	Body  string        `json:"body"`
	Media *models.Media `json:"media"`
}

// PostToRoom handles POST /v1/rooms/:id/messages
func (h *MessageHandler) PostToRoom(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session := middleware.GetSession(c)
	room, err := h.rooms.Require(c.Request.Context(), session.ID, roomID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	msg, err := h.delivery.Publish(c.Request.Context(), models.RoomTarget(room.ID), session.User.Username, req.Body, req.Media)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// ListRoom handles GET /v1/rooms/:id/messages?cursor=...&limit=50
func (h *MessageHandler) ListRoom(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	session := middleware.GetSession(c)
	room, err := h.rooms.Require(c.Request.Context(), session.ID, roomID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	page, err := h.messages.Page(c.Request.Context(), models.RoomTarget(room.ID), c.Query("cursor"), limitParam(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// PostDirect handles POST /v1/messages/:username
func (h *MessageHandler) PostDirect(c *gin.Context) {
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session := middleware.GetSession(c)
	target := models.ConversationTarget(session.User.Username, c.Param("username"))

	msg, err := h.delivery.Publish(c.Request.Context(), target, session.User.Username, req.Body, req.Media)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// ListDirect handles GET /v1/messages/:username?cursor=...&limit=50
func (h *MessageHandler) ListDirect(c *gin.Context) {
	session := middleware.GetSession(c)
	target := models.ConversationTarget(session.User.Username, c.Param("username"))

	page, err := h.messages.Page(c.Request.Context(), target, c.Query("cursor"), limitParam(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func limitParam(c *gin.Context) int {
	limit := chat.DefaultPageSize
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	return limit
}
