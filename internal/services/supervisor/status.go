package supervisor

import (
	"sync"
	"time"

	"motion-recorder-go/internal/models"
	"motion-recorder-go/internal/services/recorder"
)

// Tracker holds the supervisor status read by the API. The session loop is the only writer.
type Tracker struct {
	mu     sync.RWMutex
	status models.SupervisorStatus
}

func newTracker(cameraID string) *Tracker {
	return &Tracker{
		status: models.SupervisorStatus{
			CameraID: cameraID,
			Phase:    models.PhaseStopped,
			State:    models.StateIdle,
		},
	}
}

// Snapshot returns a copy safe to serialize
func (t *Tracker) Snapshot() models.SupervisorStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := t.status
	if s.CurrentSegment != nil {
		seg := *s.CurrentSegment
		s.CurrentSegment = &seg
	}
	return s
}

func (t *Tracker) setPhase(phase models.SupervisorPhase) {
	t.mu.Lock()
	t.status.Phase = phase
	t.mu.Unlock()
}

func (t *Tracker) connecting(sessionID string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Phase = models.PhaseConnecting
	t.status.SessionID = sessionID
	t.status.SessionStartedAt = now
	t.status.Sessions++
	t.status.FramesRead = 0
	t.status.Width, t.status.Height = 0, 0
	t.status.NextRetryAt = time.Time{}
}

func (t *Tracker) opened(width, height int, warmup bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Width, t.status.Height = width, height
	if warmup {
		t.status.Phase = models.PhaseWarmingUp
	} else {
		t.status.Phase = models.PhaseStreaming
	}
}

func (t *Tracker) frame(now time.Time, streaming bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.FramesRead++
	t.status.LastFrameTime = now
	t.status.ConsecutiveErrors = 0
	if streaming {
		t.status.Phase = models.PhaseStreaming
	}
}

func (t *Tracker) recording(ctrl *recorder.Controller, out recorder.Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.State = ctrl.State()
	t.status.CurrentSegment = ctrl.Current()
	t.status.LastMotion = ctrl.LastMotion()
	if out.Transition == recorder.TransitionRolled {
		t.status.RollOvers++
	}
	t.countClosed(out.Closed)
}

func (t *Tracker) tornDown(closed *models.Segment) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.State = models.StateIdle
	t.status.CurrentSegment = nil
	t.countClosed(closed)
}

func (t *Tracker) countClosed(closed *models.Segment) {
	if closed == nil {
		return
	}
	if closed.Discarded {
		t.status.SegmentsDiscarded++
	} else {
		t.status.SegmentsWritten++
	}
}

func (t *Tracker) backoff(err error, failures int, next time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Phase = models.PhaseBackoff
	t.status.ConsecutiveErrors = failures
	t.status.NextRetryAt = next
	if err != nil {
		t.status.LastError = err.Error()
	}
}
