package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StreamHandler exposes the live preview and the event feed
type StreamHandler struct {
	preview http.Handler
	events  http.Handler
}

// NewStreamHandler accepts a nil preview; /preview then answers 503
func NewStreamHandler(preview, events http.Handler) *StreamHandler {
	return &StreamHandler{preview: preview, events: events}
}

// @Summary Live preview
// @Description MJPEG stream of sampled frames
// @Tags stream
// @Produce multipart/x-mixed-replace
// @Success 200
// @Failure 503 {object} map[string]string
// @Router /preview [get]
func (h *StreamHandler) Preview(c *gin.Context) {
	if h.preview == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Preview is not enabled"})
		return
	}
	h.preview.ServeHTTP(c.Writer, c.Request)
}

// @Summary Event feed
// @Description WebSocket stream of recorder events as JSON
// @Tags stream
// @Success 101
// @Router /events/ws [get]
func (h *StreamHandler) Events(c *gin.Context) {
	h.events.ServeHTTP(c.Writer, c.Request)
}
