package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/PedroBarbosa73/chat-app/internal/chat"
	"github.com/PedroBarbosa73/chat-app/internal/middleware"
)

// AdminHandler exposes the administrative media operations: revoking a
// single attachment and sweeping the log for attachments whose blobs have
// disappeared.
type AdminHandler struct {
	messages *chat.MessageService
	admin    string
	logger   *zap.Logger
}

func NewAdminHandler(messages *chat.MessageService, admin string, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{messages: messages, admin: admin, logger: logger}
}

func (h *AdminHandler) requireAdmin(c *gin.Context) bool {
	session := middleware.GetSession(c)
	if session.User.Username != h.admin {
		writeError(c, h.logger, fmt.Errorf("%w: admin only", chat.ErrUnauthorized))
		return false
	}
	return true
}

// RevokeMedia handles POST /v1/admin/media/:messageID/revoke
func (h *AdminHandler) RevokeMedia(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	if err := h.messages.RevokeMedia(c.Request.Context(), c.Param("messageID")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SweepMedia handles POST /v1/admin/media/sweep
func (h *AdminHandler) SweepMedia(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	revoked, err := h.messages.SweepMissingMedia(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"revoked": revoked})
}
