package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"motion-recorder-go/internal/logging"
	"motion-recorder-go/internal/models"
)

const (
	defaultMotionWindow = 24 * time.Hour
	defaultMotionLimit  = 100
	maxMotionLimit      = 1000
)

// MotionJournal reads motion intervals from the journal
type MotionJournal interface {
	MotionEvents(ctx context.Context, since time.Time, limit int) ([]models.MotionEvent, error)
}

type MotionHandler struct {
	journal MotionJournal
	now     func() time.Time
}

type MotionEventsResponse struct {
	Since  time.Time            `json:"since"`
	Count  int                  `json:"count"`
	Events []models.MotionEvent `json:"events"`
}

// NewMotionHandler accepts a nil journal; the endpoint then answers 503
func NewMotionHandler(journal MotionJournal) *MotionHandler {
	return &MotionHandler{journal: journal, now: time.Now}
}

// ListMotionEvents godoc
// @Summary List motion intervals
// @Description Motion start/end intervals from the journal, newest first
// @Tags motion
// @Produce json
// @Param since query string false "RFC3339 lower bound (default: 24h ago)"
// @Param limit query int false "Maximum number of intervals (default: 100)"
// @Success 200 {object} MotionEventsResponse
// @Failure 400 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /motion-events [get]
func (h *MotionHandler) ListMotionEvents(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Journal is not enabled"})
		return
	}

	since := h.now().Add(-defaultMotionWindow)
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be an RFC3339 timestamp"})
			return
		}
		since = parsed
	}
	limit := queryInt(c, "limit", defaultMotionLimit, 1)
	if limit > maxMotionLimit {
		limit = maxMotionLimit
	}

	events, err := h.journal.MotionEvents(c.Request.Context(), since, limit)
	if err != nil {
		logging.Error(c).Err(err).Msg("Failed to query motion events")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query motion events"})
		return
	}
	if events == nil {
		events = []models.MotionEvent{}
	}

	c.JSON(http.StatusOK, MotionEventsResponse{Since: since, Count: len(events), Events: events})
}
