package models

import (
	"time"
)

// SupervisorPhase is what the supervisor is currently doing
type SupervisorPhase string

const (
	PhaseConnecting SupervisorPhase = "connecting"
	PhaseWarmingUp  SupervisorPhase = "warming_up"
	PhaseStreaming  SupervisorPhase = "streaming"
	PhaseBackoff    SupervisorPhase = "backoff"
	PhaseStopped    SupervisorPhase = "stopped"
)

// SupervisorStatus is a point-in-time snapshot served by the API
type SupervisorStatus struct {
	CameraID          string          `json:"camera_id"`
	Phase             SupervisorPhase `json:"phase"`
	SessionID         string          `json:"session_id,omitempty"`
	SessionStartedAt  time.Time       `json:"session_started_at,omitempty"`
	Sessions          int64           `json:"sessions"`
	ConsecutiveErrors int             `json:"consecutive_errors"`
	Width             int             `json:"width,omitempty"`
	Height            int             `json:"height,omitempty"`
	FramesRead        int64           `json:"frames_read"`
	State             ControllerState `json:"state"`
	CurrentSegment    *Segment        `json:"current_segment,omitempty"`
	SegmentsWritten   int64           `json:"segments_written"`
	SegmentsDiscarded int64           `json:"segments_discarded"`
	RollOvers         int64           `json:"roll_overs"`
	LastMotion        time.Time       `json:"last_motion,omitempty"`
	LastFrameTime     time.Time       `json:"last_frame_time,omitempty"`
	LastError         string          `json:"last_error,omitempty"`
	NextRetryAt       time.Time       `json:"next_retry_at,omitempty"`
}
