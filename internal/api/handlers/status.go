package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"motion-recorder-go/internal/models"
)

// StatusSource is satisfied by the supervisor's status tracker
type StatusSource interface {
	Snapshot() models.SupervisorStatus
}

type StatusHandler struct {
	source StatusSource
}

func NewStatusHandler(source StatusSource) *StatusHandler {
	return &StatusHandler{source: source}
}

// @Summary Recorder status
// @Description Current supervisor phase, session, controller state and segment counters
// @Tags status
// @Produce json
// @Success 200 {object} models.SupervisorStatus
// @Router /status [get]
func (h *StatusHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.source.Snapshot())
}
