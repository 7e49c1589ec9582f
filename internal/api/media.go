package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/PedroBarbosa73/chat-app/internal/blob"
	"github.com/PedroBarbosa73/chat-app/internal/models"
)

// maxUploadBytes caps a single attachment at 16MB.
const maxUploadBytes = 16 << 20

// MediaHandler accepts attachment uploads and hands back the blob
// reference that messages carry. The bytes themselves never touch the
// message path.
type MediaHandler struct {
	store  blob.Store
	logger *zap.Logger
}

func NewMediaHandler(store blob.Store, logger *zap.Logger) *MediaHandler {
	return &MediaHandler{store: store, logger: logger}
}

// Upload handles POST /v1/media (multipart, field "file").
func (h *MediaHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("failed to open upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		h.logger.Error("failed to read upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	if len(data) > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := h.store.Put(c.Request.Context(), data, contentType, fileHeader.Filename)
	if err != nil {
		h.logger.Error("blob store put failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage temporarily unavailable"})
		return
	}

	c.JSON(http.StatusCreated, models.Media{
		Type:     contentType,
		URL:      url,
		Filename: fileHeader.Filename,
	})
}
