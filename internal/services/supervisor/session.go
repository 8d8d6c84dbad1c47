package supervisor

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"motion-recorder-go/internal/logging"
	"motion-recorder-go/internal/models"
	"motion-recorder-go/internal/services/motion"
	"motion-recorder-go/internal/services/recorder"
)

// session is one connection attempt. It owns the source, the background model and the
// controller, and releases all three on every exit path.
type session struct {
	sup      *Supervisor
	id       string
	logger   zerolog.Logger
	src      FrameSource
	detector *motion.Detector
	ctrl     *recorder.Controller

	frames       int64
	motionActive bool
}

func (s *Supervisor) runSession(ctx context.Context) (frames int64, err error) {
	sessionID := s.newID()
	logger := logging.WithSession(s.logger, sessionID)
	s.status.connecting(sessionID, s.now())

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("Session panic recovered")
			err = fmt.Errorf("session panic: %v", r)
		}
	}()

	logger.Debug().Msg("Opening frame source")
	src, err := s.open(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("Failed to close frame source")
		}
	}()

	width, height := src.Size()
	detector := motion.NewDetector(s.analyzer, s.settings.Detector)
	defer detector.Close()

	sess := &session{
		sup:      s,
		id:       sessionID,
		logger:   logger,
		src:      src,
		detector: detector,
		ctrl:     recorder.NewController(s.settings.Recorder, s.encoder, s.namer, detector, sessionID, width, height),
	}

	s.status.opened(width, height, s.settings.WarmupFrames > 0)
	s.publish(models.EventSessionStarted, sessionID, nil, nil)
	logger.Info().Int("width", width).Int("height", height).Msg("Session started")

	defer func() { sess.teardown(err) }()

	err = sess.run(ctx)
	return sess.frames, err
}

// run is the read, classify, record loop. Shutdown is polled once per frame.
func (ss *session) run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			ss.logger.Error().Interface("panic", r).Int64("frames_read", ss.frames).Msg("Session loop panic recovered")
			err = fmt.Errorf("session loop panic: %v", r)
		}
	}()

	s := ss.sup
	for {
		if ctx.Err() != nil {
			return nil
		}

		frame, err := ss.src.Read()
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}
		ss.frames++
		now := s.now()

		warming := ss.frames <= int64(s.settings.WarmupFrames)
		s.status.frame(now, !warming)
		if warming {
			continue
		}
		if ss.frames == int64(s.settings.WarmupFrames)+1 && s.settings.WarmupFrames > 0 {
			ss.logger.Debug().Int("warmup_frames", s.settings.WarmupFrames).Msg("Warm-up complete")
		}

		if s.observer != nil {
			s.observer.Observe(frame)
		}

		isMotion, err := ss.detector.Classify(frame)
		if err != nil {
			return fmt.Errorf("classify frame %d: %w", frame.Seq, err)
		}

		out, err := ss.ctrl.Tick(frame, isMotion, now)
		ss.handle(out)
		s.status.recording(ss.ctrl, out)
		if err != nil {
			return err
		}
	}
}

func (ss *session) handle(out recorder.Outcome) {
	s := ss.sup

	if out.Closed != nil {
		ss.closed(out.Closed)
	}

	switch out.Transition {
	case recorder.TransitionStarted:
		ss.motionActive = true
		ss.logger.Info().Str("segment", out.Opened.Name).Msg("Motion detected, recording started")
		s.publish(models.EventMotionStarted, ss.id, out.Opened, nil)
		s.publish(models.EventSegmentOpened, ss.id, out.Opened, nil)

	case recorder.TransitionRolled:
		ss.logger.Info().
			Str("closed", out.Closed.Name).
			Str("segment", out.Opened.Name).
			Msg("Segment reached frame limit, rolled over")
		s.publish(models.EventSegmentRolled, ss.id, out.Opened, nil)
		s.publish(models.EventSegmentOpened, ss.id, out.Opened, nil)

	case recorder.TransitionStopped:
		ss.motionActive = false
		ss.logger.Info().Time("last_motion", ss.ctrl.LastMotion()).Msg("No motion within recording delay, recording stopped")
		s.publishAt(ss.ctrl.LastMotion(), models.EventMotionEnded, ss.id, out.Closed, nil)
	}
}

func (ss *session) closed(seg *models.Segment) {
	s := ss.sup
	logger := logging.WithSegment(ss.logger, seg.Name)

	if seg.Discarded {
		logger.Warn().
			Int64("size_bytes", seg.SizeBytes).
			Int("frames", seg.Frames).
			Msg("Segment below minimum size, deleted")
		s.publish(models.EventSegmentDiscarded, ss.id, seg, nil)
		return
	}

	logger.Info().
		Int64("size_bytes", seg.SizeBytes).
		Int("frames", seg.Frames).
		Dur("duration", seg.Duration()).
		Msg("Segment finalized")
	s.publish(models.EventSegmentClosed, ss.id, seg, nil)

	if s.retention != nil {
		active := ""
		if cur := ss.ctrl.Current(); cur != nil {
			active = cur.Path
		}
		if _, err := s.retention.Apply(active); err != nil {
			logger.Warn().Err(err).Msg("Segment retention failed")
		}
	}
}

// teardown forces the controller idle. The open segment, if any, goes through the
// same close path as a normal stop.
func (ss *session) teardown(cause error) {
	s := ss.sup

	closed, err := ss.ctrl.Teardown(s.now())
	if err != nil {
		ss.logger.Warn().Err(err).Msg("Error closing segment during teardown")
	}
	if closed != nil {
		ss.closed(closed)
	}
	s.status.tornDown(closed)

	if ss.motionActive {
		ss.motionActive = false
		s.publishAt(ss.ctrl.LastMotion(), models.EventMotionEnded, ss.id, closed, nil)
	}
	s.publish(models.EventSessionEnded, ss.id, nil, cause)

	ss.logger.Info().
		Int64("frames_read", ss.frames).
		AnErr("cause", cause).
		Msg("Session ended")
}
