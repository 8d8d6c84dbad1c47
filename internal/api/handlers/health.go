package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	CameraID string
	Version  string
}

func NewHealthHandler(cameraID, version string) *HealthHandler {
	return &HealthHandler{CameraID: cameraID, Version: version}
}

type HealthResponse struct {
	Status   string `json:"status" example:"healthy"`
	CameraID string `json:"camera_id" example:"cam-1"`
}

type RecorderInfoResponse struct {
	CameraID     string   `json:"camera_id" example:"cam-1"`
	Status       string   `json:"status" example:"running"`
	Version      string   `json:"version" example:"1.0.0"`
	Capabilities []string `json:"capabilities"`
}

// @Summary Health check
// @Description Check if the recorder process is responsive
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:   "healthy",
		CameraID: h.CameraID,
	})
}

// @Summary Recorder information
// @Description Get basic recorder information and capabilities
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} RecorderInfoResponse
// @Router / [get]
func (h *HealthHandler) RecorderInfo(c *gin.Context) {
	c.JSON(http.StatusOK, RecorderInfoResponse{
		CameraID: h.CameraID,
		Status:   "running",
		Version:  h.Version,
		Capabilities: []string{
			"motion_detection",
			"segment_recording",
			"event_streaming",
		},
	})
}
