package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// EventCounter reports event bus totals
type EventCounter interface {
	Stats() (published, dropped int64)
}

// SystemHandler handles system-related endpoints
type SystemHandler struct {
	CameraID string
	started  time.Time
	events   EventCounter
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(cameraID string, events EventCounter) *SystemHandler {
	return &SystemHandler{
		CameraID: cameraID,
		started:  time.Now(),
		events:   events,
	}
}

// @Summary Get system stats
// @Description Get process statistics and event bus counters
// @Tags system
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /system/stats [get]
func (h *SystemHandler) GetStats(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := gin.H{
		"camera_id":      h.CameraID,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"memory_mb":      m.Alloc / 1024 / 1024,
		"cpu_cores":      runtime.NumCPU(),
		"goroutines":     runtime.NumGoroutine(),
		"go_version":     runtime.Version(),
	}
	if h.events != nil {
		published, dropped := h.events.Stats()
		stats["events_published"] = published
		stats["events_dropped"] = dropped
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"stats":     stats,
		"timestamp": time.Now().Unix(),
	})
}
