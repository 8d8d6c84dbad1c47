package models

import (
	"time"
)

// ControllerState is the recording state machine state
type ControllerState string

const (
	StateIdle      ControllerState = "idle"
	StateRecording ControllerState = "recording"
)

// String returns the string representation of ControllerState
func (s ControllerState) String() string {
	return string(s)
}

// Segment describes one output video file
type Segment struct {
	Path         string    `json:"path"`
	Name         string    `json:"name"`
	SessionID    string    `json:"session_id,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at,omitempty"`
	Frames       int       `json:"frames"`
	SizeBytes    int64     `json:"size_bytes"`
	Continuation bool      `json:"continuation"`
	Discarded    bool      `json:"discarded"`
}

// Duration returns the wall-clock span covered by the segment
func (s Segment) Duration() time.Duration {
	if s.EndedAt.IsZero() {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// SegmentFile is a finalized segment found on disk
type SegmentFile struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	SizeBytes    int64     `json:"size_bytes"`
	ModTime      time.Time `json:"mod_time"`
	Continuation bool      `json:"continuation"`
}

// MotionEvent is one motion interval recorded by the journal
type MotionEvent struct {
	ID        int64      `json:"id"`
	CameraID  string     `json:"camera_id"`
	SessionID string     `json:"session_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}
