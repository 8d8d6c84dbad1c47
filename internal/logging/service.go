package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"motion-recorder-go/internal/config"
)

// NewServiceLogger tags the global logger with the camera and the owning service
func NewServiceLogger(cfg *config.Config, service string) zerolog.Logger {
	return log.With().Str("camera_id", cfg.CameraID).Str("service", service).Logger()
}

// WithSession scopes a logger to one connection attempt
func WithSession(base zerolog.Logger, sessionID string) zerolog.Logger {
	return base.With().Str("session_id", sessionID).Logger()
}

// WithSegment adds the segment file name
func WithSegment(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("segment", name).Logger()
}
