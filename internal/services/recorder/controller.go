package recorder

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"motion-recorder-go/internal/models"
)

// SegmentWriter is an open output video file
type SegmentWriter interface {
	Write(frame *models.Frame) error
	Close() error
}

// Encoder opens segment files for a fixed geometry
type Encoder interface {
	Open(path string, width, height int) (SegmentWriter, error)
}

// Reseeder forces the background model back to uninitialized
type Reseeder interface {
	Reseed()
}

// Transition is the state change caused by one tick
type Transition int

const (
	TransitionNone Transition = iota
	TransitionStarted
	TransitionRolled
	TransitionStopped
)

func (t Transition) String() string {
	switch t {
	case TransitionStarted:
		return "started"
	case TransitionRolled:
		return "rolled"
	case TransitionStopped:
		return "stopped"
	default:
		return "none"
	}
}

// Outcome describes what a tick did. Closed is set for roll-over and stop, Opened for
// start and roll-over.
type Outcome struct {
	Transition Transition
	Opened     *models.Segment
	Closed     *models.Segment
	Written    bool
}

// Settings for the recording state machine
type Settings struct {
	RecordingDelay   time.Duration
	MaxSegmentFrames int
	MinSegmentBytes  int64
	ReseedOnRollover bool
}

type activeSegment struct {
	writer SegmentWriter
	meta   models.Segment
}

// Controller owns the motion hysteresis state machine and the single open segment.
//
// Per tick, with the controller RECORDING, roll-over is checked before the
// no-motion timeout: a full segment is always rolled and the frame lands in the
// successor, even if motion has also expired. The stop then happens on the next tick.
type Controller struct {
	settings Settings
	encoder  Encoder
	namer    *Namer
	reseeder Reseeder

	sessionID string
	width     int
	height    int

	state      models.ControllerState
	active     *activeSegment
	lastMotion time.Time
}

// NewController creates an IDLE controller for one session and one frame geometry.
// reseeder may be nil.
func NewController(settings Settings, encoder Encoder, namer *Namer, reseeder Reseeder, sessionID string, width, height int) *Controller {
	return &Controller{
		settings:  settings,
		encoder:   encoder,
		namer:     namer,
		reseeder:  reseeder,
		sessionID: sessionID,
		width:     width,
		height:    height,
		state:     models.StateIdle,
	}
}

// State returns the current state
func (c *Controller) State() models.ControllerState {
	return c.state
}

// Current returns a copy of the open segment's metadata, or nil when IDLE
func (c *Controller) Current() *models.Segment {
	if c.active == nil {
		return nil
	}
	meta := c.active.meta
	return &meta
}

// LastMotion returns the time of the last motion decision
func (c *Controller) LastMotion() time.Time {
	return c.lastMotion
}

// Tick feeds one classified frame through the state machine. A returned error is a
// *models.WriteError; the caller is expected to end the session and call Teardown.
func (c *Controller) Tick(frame *models.Frame, motion bool, now time.Time) (Outcome, error) {
	var out Outcome

	if motion {
		c.lastMotion = now
	}

	switch c.state {
	case models.StateIdle:
		if !motion {
			return out, nil
		}
		opened, err := c.open(now, false)
		if err != nil {
			return out, err
		}
		c.state = models.StateRecording
		out.Transition = TransitionStarted
		out.Opened = opened

	case models.StateRecording:
		if c.active.meta.Frames >= c.settings.MaxSegmentFrames {
			closed, closeErr := c.closeActive(now)
			out.Closed = closed
			if closeErr != nil {
				c.state = models.StateIdle
				return out, closeErr
			}
			opened, err := c.open(now, true)
			if err != nil {
				c.state = models.StateIdle
				return out, err
			}
			out.Transition = TransitionRolled
			out.Opened = opened
			if c.settings.ReseedOnRollover && c.reseeder != nil {
				c.reseeder.Reseed()
			}
		} else if !motion && now.Sub(c.lastMotion) > c.settings.RecordingDelay {
			closed, err := c.closeActive(now)
			c.state = models.StateIdle
			out.Transition = TransitionStopped
			out.Closed = closed
			return out, err
		}
	}

	if err := c.active.writer.Write(frame); err != nil {
		return out, &models.WriteError{Op: "write", Path: c.active.meta.Path, Err: err}
	}
	c.active.meta.Frames++
	out.Written = true
	return out, nil
}

// Teardown forces the controller to IDLE, closing the open segment if any.
// Safe to call more than once.
func (c *Controller) Teardown(now time.Time) (*models.Segment, error) {
	c.state = models.StateIdle
	if c.active == nil {
		return nil, nil
	}
	return c.closeActive(now)
}

func (c *Controller) open(now time.Time, continuation bool) (*models.Segment, error) {
	path, err := c.namer.Next(now, continuation)
	if err != nil {
		return nil, &models.WriteError{Op: "name", Path: c.namer.Dir, Err: err}
	}

	writer, err := c.encoder.Open(path, c.width, c.height)
	if err != nil {
		return nil, &models.WriteError{Op: "open", Path: path, Err: err}
	}

	c.active = &activeSegment{
		writer: writer,
		meta: models.Segment{
			Path:         path,
			Name:         filepath.Base(path),
			SessionID:    c.sessionID,
			StartedAt:    now,
			Continuation: continuation,
		},
	}
	meta := c.active.meta
	return &meta, nil
}

// closeActive finalizes the open segment and applies the plausibility rule exactly once:
// a file smaller than MinSegmentBytes is a truncated capture and gets deleted.
func (c *Controller) closeActive(now time.Time) (*models.Segment, error) {
	active := c.active
	c.active = nil

	meta := active.meta
	meta.EndedAt = now

	var closeErr error
	if err := active.writer.Close(); err != nil {
		closeErr = &models.WriteError{Op: "close", Path: meta.Path, Err: err}
	}

	info, err := os.Stat(meta.Path)
	switch {
	case err == nil:
		meta.SizeBytes = info.Size()
	case errors.Is(err, os.ErrNotExist):
		meta.Discarded = true
		return &meta, closeErr
	default:
		return &meta, errors.Join(closeErr, &models.WriteError{Op: "stat", Path: meta.Path, Err: err})
	}

	if meta.SizeBytes < c.settings.MinSegmentBytes {
		if err := os.Remove(meta.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return &meta, errors.Join(closeErr, &models.WriteError{Op: "remove", Path: meta.Path, Err: err})
		}
		meta.Discarded = true
	}

	return &meta, closeErr
}
