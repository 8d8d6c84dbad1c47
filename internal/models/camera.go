package models

import (
	"time"
)

// FrameFormatBGR24 is the packed 8-bit BGR layout produced by OpenCV captures
const FrameFormatBGR24 = "BGR24"

// Frame represents a single decoded frame from the camera
type Frame struct {
	CameraID  string
	Data      []byte
	Timestamp time.Time
	Seq       int64
	Width     int
	Height    int
	Format    string
}

// Size returns the frame geometry
func (f *Frame) Size() (int, int) {
	return f.Width, f.Height
}

// ExpectedLen returns the byte length a well-formed BGR24 frame of this geometry must have
func (f *Frame) ExpectedLen() int {
	return f.Width * f.Height * 3
}

// Camera describes the single stream this process supervises
type Camera struct {
	ID  string
	URL string
}

// ProbeResult is the outcome of a camera stream check
type ProbeResult struct {
	Valid       bool    `json:"valid"`
	Message     string  `json:"message"`
	Width       int     `json:"width,omitempty"`
	Height      int     `json:"height,omitempty"`
	FPS         float64 `json:"fps,omitempty"`
	FramesRead  int     `json:"frames_read"`
	ErrorDetail string  `json:"error_detail,omitempty"`
}
