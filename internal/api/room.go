package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PedroBarbosa73/chat-app/internal/chat"
	"github.com/PedroBarbosa73/chat-app/internal/middleware"
)

type RoomHandler struct {
	rooms  *chat.RoomService
	logger *zap.Logger
}

func NewRoomHandler(rooms *chat.RoomService, logger *zap.Logger) *RoomHandler {
	return &RoomHandler{rooms: rooms, logger: logger}
}

// createRoomRequest deliberately has no is_private field: privacy is
// derived from the password. A non-empty password makes the room private.
type createRoomRequest struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password"`
}

// Create handles POST /v1/rooms
func (h *RoomHandler) Create(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session := middleware.GetSession(c)
	room, err := h.rooms.Create(c.Request.Context(), req.Name, req.Password, session.User.Username)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, room)
}

// List handles GET /v1/rooms
func (h *RoomHandler) List(c *gin.Context) {
	rooms, err := h.rooms.List(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// GetByID handles GET /v1/rooms/:id
func (h *RoomHandler) GetByID(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	room, err := h.rooms.Get(c.Request.Context(), roomID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// Delete handles DELETE /v1/rooms/:id (admin only; cascades messages and
// favorites).
func (h *RoomHandler) Delete(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	session := middleware.GetSession(c)
	if err := h.rooms.Delete(c.Request.Context(), roomID, session.User.Username); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type joinRoomRequest struct {
	Password string `json:"password"`
}

// Join handles POST /v1/rooms/:id/join — the password check that unlocks a
// private room for this session. Public rooms always succeed.
func (h *RoomHandler) Join(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Body is optional: joining a public room needs no password.
		req.Password = ""
	}

	session := middleware.GetSession(c)
	room, err := h.rooms.Join(c.Request.Context(), session.ID, roomID, req.Password)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

type setPasswordRequest struct {
	Password string `json:"password"`
}

// SetPassword handles PUT /v1/rooms/:id/password. An empty password makes
// the room public.
func (h *RoomHandler) SetPassword(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	var req setPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session := middleware.GetSession(c)
	if err := h.rooms.SetPassword(c.Request.Context(), roomID, session.User.Username, req.Password); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
