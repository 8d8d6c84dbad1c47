package supervisor

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"motion-recorder-go/internal/models"
	"motion-recorder-go/internal/services/motion"
	"motion-recorder-go/internal/services/recorder"
)

// scriptedSource yields frames 1..count, then fails every further read.
type scriptedSource struct {
	count   int64
	seq     int64
	readErr error
	panicAt int64
	closed  bool
}

func (s *scriptedSource) Size() (int, int) { return 640, 480 }

func (s *scriptedSource) Read() (*models.Frame, error) {
	if s.seq >= s.count {
		return nil, s.readErr
	}
	s.seq++
	if s.panicAt > 0 && s.seq == s.panicAt {
		panic("decoder crashed")
	}
	return &models.Frame{Seq: s.seq, Width: 640, Height: 480, Timestamp: time.Now()}, nil
}

func (s *scriptedSource) Close() error {
	s.closed = true
	return nil
}

type plane struct{ seq int64 }

func (plane) Close() error { return nil }

type background struct{}

func (background) Close() error { return nil }

// seqAnalyzer reports a large contour for the sequence numbers in motion, or for every
// sequence from motionFrom on.
type seqAnalyzer struct {
	mu         sync.Mutex
	motion     map[int64]bool
	motionFrom int64
	smoothed   []int64
}

func (a *seqAnalyzer) Smooth(frame *models.Frame) (motion.Plane, error) {
	a.mu.Lock()
	a.smoothed = append(a.smoothed, frame.Seq)
	a.mu.Unlock()
	return plane{seq: frame.Seq}, nil
}

func (a *seqAnalyzer) Seed(motion.Plane) (motion.Background, error) { return background{}, nil }

func (a *seqAnalyzer) Blend(motion.Background, motion.Plane, float64) error { return nil }

func (a *seqAnalyzer) ForEachContour(_ motion.Background, p motion.Plane, fn func(float64) bool) error {
	seq := p.(plane).seq
	if a.motion[seq] || (a.motionFrom > 0 && seq >= a.motionFrom) {
		fn(50000)
	}
	return nil
}

type fileEncoder struct {
	bytesPerFrame int
}

func (e *fileEncoder) Open(path string, width, height int) (recorder.SegmentWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &fileWriter{f: f, n: e.bytesPerFrame}, nil
}

type fileWriter struct {
	f *os.File
	n int
}

func (w *fileWriter) Write(*models.Frame) error {
	_, err := w.f.Write(make([]byte, w.n))
	return err
}

func (w *fileWriter) Close() error { return w.f.Close() }

type eventLog struct {
	mu     sync.Mutex
	events []models.Event
}

func (l *eventLog) Publish(e models.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) types() []models.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.EventType, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Type)
	}
	return out
}

type recordingPolicy struct {
	mu       sync.Mutex
	attempts []int
	delay    time.Duration
}

func (p *recordingPolicy) Delay(attempt int) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts = append(p.attempts, attempt)
	return p.delay
}

func testSettings(dir string) Settings {
	return Settings{
		CameraID:     "cam-test",
		WarmupFrames: 10,
		StoragePath:  dir,
		Extension:    ".avi",
		Detector:     motion.Settings{Alpha: 0.05, MinArea: 8000},
		Recorder: recorder.Settings{
			RecordingDelay:   time.Hour,
			MaxSegmentFrames: 1200,
			MinSegmentBytes:  10240,
			ReseedOnRollover: true,
		},
	}
}

func motionRange(first, last int64) map[int64]bool {
	m := make(map[int64]bool)
	for i := first; i <= last; i++ {
		m[i] = true
	}
	return m
}

// sourcesThenStop hands out the given sources in order and cancels ctx when they run out
func sourcesThenStop(cancel context.CancelFunc, sources ...*scriptedSource) (SourceOpener, *int) {
	var mu sync.Mutex
	calls := 0
	return func(ctx context.Context) (FrameSource, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls > len(sources) {
			cancel()
			return nil, &models.ConnectionError{URL: "http://cam/video", Err: errors.New("stopped")}
		}
		return sources[calls-1], nil
	}, &calls
}

func TestWarmupFramesAreNeverClassified(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &scriptedSource{count: 15, readErr: models.ErrReadFailed}
	open, _ := sourcesThenStop(cancel, src)
	analyzer := &seqAnalyzer{motion: motionRange(1, 15)}
	events := &eventLog{}

	sup := New(testSettings(t.TempDir()), open, analyzer, &fileEncoder{bytesPerFrame: 1024},
		FixedDelay{Interval: time.Millisecond}, WithPublisher(events))
	if err := sup.Run(ctx); err != nil {
		t.Fatal(err)
	}

	if len(analyzer.smoothed) != 5 || analyzer.smoothed[0] != 11 {
		t.Fatalf("classified frames = %v, want 11..15", analyzer.smoothed)
	}

	var opened *models.Segment
	for _, e := range events.events {
		if e.Type == models.EventSegmentOpened {
			opened = e.Segment
			break
		}
	}
	if opened == nil {
		t.Fatal("expected a segment to open once motion was classified")
	}
	// frame 11 seeds the background, so recording starts at frame 12
	if opened.Frames != 0 {
		t.Errorf("opened segment should be reported before its first write, got %d frames", opened.Frames)
	}
}

func TestStillSceneNeverRecords(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	src := &scriptedSource{count: 15, readErr: models.ErrReadFailed}
	open, _ := sourcesThenStop(cancel, src)
	events := &eventLog{}

	sup := New(testSettings(dir), open, &seqAnalyzer{}, &fileEncoder{bytesPerFrame: 1024},
		FixedDelay{Interval: time.Millisecond}, WithPublisher(events))
	if err := sup.Run(ctx); err != nil {
		t.Fatal(err)
	}

	for _, typ := range events.types() {
		if typ == models.EventSegmentOpened {
			t.Fatal("no segment may open without motion")
		}
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("storage should be empty, found %d files", len(entries))
	}
}

func TestReadFailureMidRecordingCleansUpAndReconnects(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	first := &scriptedSource{count: 14, readErr: &models.ConnectionError{URL: "http://cam/video", Err: models.ErrReadFailed}}
	second := &scriptedSource{count: 11, readErr: models.ErrReadFailed}
	open, calls := sourcesThenStop(cancel, first, second)
	events := &eventLog{}
	policy := &recordingPolicy{delay: 5 * time.Millisecond}

	sup := New(testSettings(dir), open, &seqAnalyzer{motion: motionRange(12, 14)}, &fileEncoder{bytesPerFrame: 1024},
		policy, WithPublisher(events))
	if err := sup.Run(ctx); err != nil {
		t.Fatal(err)
	}

	if *calls != 3 {
		t.Errorf("open calls = %d, want 3", *calls)
	}
	if !first.closed || !second.closed {
		t.Error("every source must be closed at session end")
	}

	want := []models.EventType{
		models.EventSessionStarted,
		models.EventMotionStarted,
		models.EventSegmentOpened,
		models.EventSegmentDiscarded,
		models.EventMotionEnded,
		models.EventSessionEnded,
		models.EventSessionStarted,
		models.EventSessionEnded,
	}
	got := events.types()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d = %s, want %s (all: %v)", i, got[i], want[i], got)
		}
	}

	ended := events.events[5]
	if ended.Error == "" {
		t.Error("session_ended should carry the read error")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("three written frames are below the size threshold and must be deleted, found %d files", len(entries))
	}

	status := sup.Status().Snapshot()
	if status.Phase != models.PhaseStopped || status.Sessions != 3 || status.SegmentsDiscarded != 1 {
		t.Errorf("unexpected status %+v", status)
	}
}

func TestTeardownKeepsLargeSegment(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	src := &scriptedSource{count: 40, readErr: models.ErrReadFailed}
	open, _ := sourcesThenStop(cancel, src)
	events := &eventLog{}

	sup := New(testSettings(dir), open, &seqAnalyzer{motion: motionRange(12, 40)}, &fileEncoder{bytesPerFrame: 1024},
		FixedDelay{Interval: time.Millisecond}, WithPublisher(events))
	if err := sup.Run(ctx); err != nil {
		t.Fatal(err)
	}

	var closed *models.Segment
	for _, e := range events.events {
		if e.Type == models.EventSegmentClosed {
			closed = e.Segment
		}
	}
	if closed == nil {
		t.Fatalf("expected segment_closed, got %v", events.types())
	}
	if closed.Frames != 29 {
		t.Errorf("frames = %d, want 29", closed.Frames)
	}
	if _, err := os.Stat(closed.Path); err != nil {
		t.Errorf("segment above the threshold must survive teardown: %v", err)
	}
}

func TestOpenFailuresAreRetriedWithGrowingAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	open := func(ctx context.Context) (FrameSource, error) {
		calls++
		if calls == 4 {
			cancel()
		}
		return nil, &models.ConnectionError{URL: "http://cam/video", Err: errors.New("connection refused")}
	}
	policy := &recordingPolicy{delay: time.Millisecond}

	sup := New(testSettings(t.TempDir()), open, &seqAnalyzer{}, &fileEncoder{}, policy)
	if err := sup.Run(ctx); err != nil {
		t.Fatal(err)
	}

	want := []int{1, 2, 3}
	if len(policy.attempts) != len(want) {
		t.Fatalf("attempts = %v, want %v", policy.attempts, want)
	}
	for i := range want {
		if policy.attempts[i] != want[i] {
			t.Errorf("attempts = %v, want %v", policy.attempts, want)
			break
		}
	}
}

func TestFailureCountResetsAfterStreaming(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	open := func(ctx context.Context) (FrameSource, error) {
		calls++
		switch calls {
		case 1, 2:
			return nil, &models.ConnectionError{URL: "http://cam/video", Err: errors.New("refused")}
		case 3:
			return &scriptedSource{count: 3, readErr: models.ErrReadFailed}, nil
		default:
			cancel()
			return nil, &models.ConnectionError{URL: "http://cam/video", Err: errors.New("refused")}
		}
	}
	policy := &recordingPolicy{delay: time.Millisecond}

	sup := New(testSettings(t.TempDir()), open, &seqAnalyzer{}, &fileEncoder{}, policy)
	if err := sup.Run(ctx); err != nil {
		t.Fatal(err)
	}

	want := []int{1, 2, 1}
	if len(policy.attempts) != len(want) {
		t.Fatalf("attempts = %v, want %v", policy.attempts, want)
	}
	for i := range want {
		if policy.attempts[i] != want[i] {
			t.Errorf("attempts = %v, want %v", policy.attempts, want)
			break
		}
	}
}

func TestShutdownDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opened := make(chan struct{}, 1)
	open := func(ctx context.Context) (FrameSource, error) {
		select {
		case opened <- struct{}{}:
		default:
		}
		return nil, &models.ConnectionError{URL: "http://cam/video", Err: errors.New("refused")}
	}

	sup := New(testSettings(t.TempDir()), open, &seqAnalyzer{}, &fileEncoder{}, FixedDelay{Interval: time.Hour})

	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	<-opened
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() = %v, want nil on shutdown", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not honor shutdown during backoff")
	}
	if phase := sup.Status().Snapshot().Phase; phase != models.PhaseStopped {
		t.Errorf("phase = %s, want stopped", phase)
	}
}

func TestShutdownMidSessionClosesSegment(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &scriptedSource{count: 1 << 30}
	open := func(context.Context) (FrameSource, error) { return src, nil }
	events := &eventLog{}

	observed := 0
	sup := New(testSettings(t.TempDir()), open, &seqAnalyzer{motionFrom: 12}, &fileEncoder{bytesPerFrame: 1024},
		FixedDelay{Interval: time.Hour}, WithPublisher(events),
		WithObserver(observerFunc(func(f *models.Frame) {
			observed++
			if f.Seq == 60 {
				cancel()
			}
		})))
	if err := sup.Run(ctx); err != nil {
		t.Fatal(err)
	}

	if !src.closed {
		t.Error("source must be closed on shutdown")
	}
	if observed != 50 {
		t.Errorf("observer saw %d frames, want 50", observed)
	}

	got := events.types()
	if got[len(got)-1] != models.EventSessionEnded {
		t.Fatalf("last event = %s, want session_ended", got[len(got)-1])
	}
	if last := events.events[len(events.events)-1]; last.Error != "" {
		t.Errorf("a clean shutdown should not report an error, got %q", last.Error)
	}

	var closed int
	for _, typ := range got {
		if typ == models.EventSegmentClosed {
			closed++
		}
	}
	if closed != 1 {
		t.Errorf("segment_closed events = %d, want 1", closed)
	}
}

func TestSessionPanicIsRecovered(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &scriptedSource{count: 20, panicAt: 15}
	open, _ := sourcesThenStop(cancel, src)
	events := &eventLog{}

	sup := New(testSettings(t.TempDir()), open, &seqAnalyzer{motion: motionRange(12, 20)}, &fileEncoder{bytesPerFrame: 1024},
		FixedDelay{Interval: time.Millisecond}, WithPublisher(events))
	if err := sup.Run(ctx); err != nil {
		t.Fatal(err)
	}

	if !src.closed {
		t.Error("source must be closed after a panic")
	}
	status := sup.Status().Snapshot()
	if status.State != models.StateIdle || status.CurrentSegment != nil {
		t.Errorf("teardown should leave the controller idle, got %+v", status)
	}

	var ended *models.Event
	for i := range events.events {
		if events.events[i].Type == models.EventSessionEnded {
			ended = &events.events[i]
			break
		}
	}
	if ended == nil || ended.Error == "" {
		t.Fatal("session_ended should carry the panic as an error")
	}
}

type observerFunc func(*models.Frame)

func (f observerFunc) Observe(frame *models.Frame) { f(frame) }

func TestRetentionAfterRollOverKeepsFinishedSegment(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	settings := testSettings(dir)
	settings.Recorder.MaxSegmentFrames = 3

	// frames 12..15 carry motion: three fill the first segment, the fourth rolls over
	src := &scriptedSource{count: 15, readErr: models.ErrReadFailed}
	open, _ := sourcesThenStop(cancel, src)
	events := &eventLog{}

	sup := New(settings, open, &seqAnalyzer{motion: motionRange(12, 15)}, &fileEncoder{bytesPerFrame: 8192},
		FixedDelay{Interval: time.Millisecond}, WithPublisher(events),
		WithRetention(&recorder.Retention{Dir: dir, Extension: ".avi", MaxSegments: 1}))
	if err := sup.Run(ctx); err != nil {
		t.Fatal(err)
	}

	var finished *models.Segment
	for _, e := range events.events {
		if e.Type == models.EventSegmentClosed {
			finished = e.Segment
		}
	}
	if finished == nil {
		t.Fatalf("expected segment_closed, got %v", events.types())
	}
	if finished.Continuation || finished.Frames != 3 {
		t.Errorf("unexpected finished segment %+v", finished)
	}
	if _, err := os.Stat(finished.Path); err != nil {
		t.Errorf("retention removed the segment it was keeping: %v", err)
	}

	left, err := recorder.ListSegments(dir, ".avi")
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 1 || left[0].Path != finished.Path {
		t.Errorf("segments on disk = %+v, want only %s", left, finished.Name)
	}
}

// steppingClock advances one second per reading
type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func TestMotionEndedCarriesLastMotionTime(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	settings := testSettings(t.TempDir())
	settings.Recorder.RecordingDelay = 3 * time.Second

	src := &scriptedSource{count: 40, readErr: models.ErrReadFailed}
	open, _ := sourcesThenStop(cancel, src)
	events := &eventLog{}
	clock := &steppingClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)}

	sup := New(settings, open, &seqAnalyzer{motion: motionRange(12, 14)}, &fileEncoder{bytesPerFrame: 8192},
		FixedDelay{Interval: time.Millisecond}, WithPublisher(events), WithClock(clock.Now))
	if err := sup.Run(ctx); err != nil {
		t.Fatal(err)
	}

	var started, ended, closed *models.Event
	for i := range events.events {
		e := &events.events[i]
		switch e.Type {
		case models.EventMotionStarted:
			started = e
		case models.EventMotionEnded:
			ended = e
		case models.EventSegmentClosed, models.EventSegmentDiscarded:
			closed = e
		}
	}
	if started == nil || ended == nil || closed == nil {
		t.Fatalf("missing events in %v", events.types())
	}
	if !ended.Timestamp.After(started.Timestamp) {
		t.Errorf("motion ended at %v, not after its start %v", ended.Timestamp, started.Timestamp)
	}
	if gap := closed.Timestamp.Sub(ended.Timestamp); gap <= settings.Recorder.RecordingDelay {
		t.Errorf("motion_ended is %v before the close, want more than the %v recording delay", gap, settings.Recorder.RecordingDelay)
	}
}
