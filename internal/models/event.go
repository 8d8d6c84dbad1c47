package models

import (
	"time"
)

// EventType identifies a recorder event
type EventType string

const (
	EventSessionStarted   EventType = "session_started"
	EventSessionEnded     EventType = "session_ended"
	EventMotionStarted    EventType = "motion_started"
	EventMotionEnded      EventType = "motion_ended"
	EventSegmentOpened    EventType = "segment_opened"
	EventSegmentClosed    EventType = "segment_closed"
	EventSegmentRolled    EventType = "segment_rolled"
	EventSegmentDiscarded EventType = "segment_discarded"
)

// Event is published by the supervisor whenever a session or recording changes state
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	CameraID  string    `json:"camera_id"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
	Segment   *Segment  `json:"segment,omitempty"`
	Error     string    `json:"error,omitempty"`
}
