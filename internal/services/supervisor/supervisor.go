package supervisor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"motion-recorder-go/internal/models"
	"motion-recorder-go/internal/services/motion"
	"motion-recorder-go/internal/services/recorder"
)

// FrameSource is one open camera connection
type FrameSource interface {
	Size() (width, height int)
	Read() (*models.Frame, error)
	Close() error
}

// SourceOpener connects to the camera. Errors should be *models.ConnectionError.
type SourceOpener func(ctx context.Context) (FrameSource, error)

// Publisher receives session and recording events
type Publisher interface {
	Publish(event models.Event)
}

// FrameObserver sees every frame that passed warm-up, e.g. a live preview
type FrameObserver interface {
	Observe(frame *models.Frame)
}

// Settings for the supervisor and the per-session components it builds
type Settings struct {
	CameraID     string
	WarmupFrames int
	StoragePath  string
	Extension    string
	Detector     motion.Settings
	Recorder     recorder.Settings
}

// Supervisor runs camera sessions one at a time until its context is cancelled
type Supervisor struct {
	settings  Settings
	open      SourceOpener
	analyzer  motion.Analyzer
	encoder   recorder.Encoder
	namer     *recorder.Namer
	retry     RetryPolicy
	publisher Publisher
	observer  FrameObserver
	retention *recorder.Retention
	status    *Tracker
	logger    zerolog.Logger

	now   func() time.Time
	newID func() string
}

// Option configures optional collaborators
type Option func(*Supervisor)

func WithPublisher(p Publisher) Option { return func(s *Supervisor) { s.publisher = p } }
func WithObserver(o FrameObserver) Option { return func(s *Supervisor) { s.observer = o } }
func WithRetention(r *recorder.Retention) Option { return func(s *Supervisor) { s.retention = r } }
func WithLogger(l zerolog.Logger) Option { return func(s *Supervisor) { s.logger = l } }

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option { return func(s *Supervisor) { s.now = now } }

// New creates a supervisor. The analyzer is shared across sessions, background state is not.
func New(settings Settings, open SourceOpener, analyzer motion.Analyzer, encoder recorder.Encoder, retry RetryPolicy, opts ...Option) *Supervisor {
	s := &Supervisor{
		settings: settings,
		open:     open,
		analyzer: analyzer,
		encoder:  encoder,
		namer:    recorder.NewNamer(settings.StoragePath, settings.Extension),
		retry:    retry,
		status:   newTracker(settings.CameraID),
		logger:   log.With().Str("camera_id", settings.CameraID).Str("service", "supervisor").Logger(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status returns the live status tracker
func (s *Supervisor) Status() *Tracker {
	return s.status
}

// Run blocks until ctx is cancelled. Session failures are retried forever after the
// retry policy's delay; shutdown during a session or a backoff returns nil.
func (s *Supervisor) Run(ctx context.Context) error {
	defer s.status.setPhase(models.PhaseStopped)

	s.logger.Info().
		Int("warmup_frames", s.settings.WarmupFrames).
		Dur("recording_delay", s.settings.Recorder.RecordingDelay).
		Int("max_segment_frames", s.settings.Recorder.MaxSegmentFrames).
		Msg("Supervisor started")

	failures := 0
	for {
		if ctx.Err() != nil {
			s.logger.Info().Msg("Shutdown requested, supervisor exiting")
			return nil
		}

		frames, err := s.runSession(ctx)

		if ctx.Err() != nil {
			s.logger.Info().Msg("Shutdown requested, supervisor exiting")
			return nil
		}

		if frames > 0 {
			failures = 0
		}
		failures++
		delay := s.retry.Delay(failures)
		s.status.backoff(err, failures, s.now().Add(delay))

		s.logger.Error().
			Err(err).
			Int("consecutive_failures", failures).
			Int64("frames_read", frames).
			Dur("retry_in", delay).
			Msg("Session ended, reconnecting after backoff")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info().Msg("Shutdown requested during backoff, supervisor exiting")
			return nil
		case <-timer.C:
		}
	}
}

func (s *Supervisor) publish(typ models.EventType, sessionID string, segment *models.Segment, err error) {
	s.publishAt(s.now(), typ, sessionID, segment, err)
}

// publishAt stamps the event with at instead of the current time
func (s *Supervisor) publishAt(at time.Time, typ models.EventType, sessionID string, segment *models.Segment, err error) {
	if s.publisher == nil {
		return
	}
	event := models.Event{
		ID:        s.newID(),
		Type:      typ,
		CameraID:  s.settings.CameraID,
		SessionID: sessionID,
		Timestamp: at,
		Segment:   segment,
	}
	if err != nil {
		event.Error = err.Error()
	}
	s.publisher.Publish(event)
}
