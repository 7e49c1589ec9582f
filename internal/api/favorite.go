package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PedroBarbosa73/chat-app/internal/chat"
	"github.com/PedroBarbosa73/chat-app/internal/middleware"
)

type FavoriteHandler struct {
	favorites *chat.FavoriteService
	logger    *zap.Logger
}

func NewFavoriteHandler(favorites *chat.FavoriteService, logger *zap.Logger) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites, logger: logger}
}

// Toggle handles POST /v1/favorites/:roomID and returns the new state.
func (h *FavoriteHandler) Toggle(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("roomID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	session := middleware.GetSession(c)
	favorited, err := h.favorites.Toggle(c.Request.Context(), session.User.Username, roomID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorited": favorited})
}

// List handles GET /v1/favorites
func (h *FavoriteHandler) List(c *gin.Context) {
	session := middleware.GetSession(c)

	favorites, err := h.favorites.List(c.Request.Context(), session.User.Username)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, favorites)
}
