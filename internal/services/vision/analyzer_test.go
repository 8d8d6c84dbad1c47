package vision

import (
	"image"
	"image/color"
	"testing"

	"gocv.io/x/gocv"

	"motion-recorder-go/internal/models"
	"motion-recorder-go/internal/services/motion"
)

const (
	testWidth  = 320
	testHeight = 240
)

func syntheticFrame(t *testing.T, seq int64, box *image.Rectangle) *models.Frame {
	t.Helper()

	mat := gocv.NewMatWithSize(testHeight, testWidth, gocv.MatTypeCV8UC3)
	defer mat.Close()
	mat.SetTo(gocv.NewScalar(0, 0, 0, 0))
	if box != nil {
		gocv.Rectangle(&mat, *box, color.RGBA{R: 255, G: 255, B: 255, A: 0}, -1)
	}

	return &models.Frame{
		Seq:    seq,
		Data:   mat.ToBytes(),
		Width:  testWidth,
		Height: testHeight,
		Format: models.FrameFormatBGR24,
	}
}

func newTestDetector(t *testing.T) *motion.Detector {
	t.Helper()
	analyzer := NewAnalyzer(Settings{BlurSize: 21, DiffThreshold: 30, DilateIterations: 2})
	t.Cleanup(func() { analyzer.Close() })
	return motion.NewDetector(analyzer, motion.Settings{Alpha: 0.05, MinArea: 8000})
}

func TestAnalyzerStillSceneHasNoMotion(t *testing.T) {
	d := newTestDetector(t)
	defer d.Close()

	for seq := int64(1); seq <= 5; seq++ {
		got, err := d.Classify(syntheticFrame(t, seq, nil))
		if err != nil {
			t.Fatalf("frame %d: %v", seq, err)
		}
		if got {
			t.Fatalf("frame %d: unexpected motion on a still scene", seq)
		}
	}
}

func TestAnalyzerLargeObjectIsMotion(t *testing.T) {
	d := newTestDetector(t)
	defer d.Close()

	if _, err := d.Classify(syntheticFrame(t, 1, nil)); err != nil {
		t.Fatal(err)
	}

	box := image.Rect(60, 20, 260, 220)
	got, err := d.Classify(syntheticFrame(t, 2, &box))
	if err != nil {
		t.Fatal(err)
	}
	if !got {
		t.Error("expected a 200x200 object to be classified as motion")
	}
}

func TestAnalyzerSmallObjectIsIgnored(t *testing.T) {
	d := newTestDetector(t)
	defer d.Close()

	if _, err := d.Classify(syntheticFrame(t, 1, nil)); err != nil {
		t.Fatal(err)
	}

	box := image.Rect(150, 110, 160, 120)
	got, err := d.Classify(syntheticFrame(t, 2, &box))
	if err != nil {
		t.Fatal(err)
	}
	if got {
		t.Error("a 10x10 object must stay below the area threshold")
	}
}

func TestAnalyzerRejectsShortBuffer(t *testing.T) {
	analyzer := NewAnalyzer(Settings{BlurSize: 21, DiffThreshold: 30, DilateIterations: 2})
	defer analyzer.Close()

	frame := &models.Frame{Seq: 1, Data: make([]byte, 10), Width: testWidth, Height: testHeight}
	if _, err := analyzer.Smooth(frame); err == nil {
		t.Fatal("expected an error for a truncated buffer")
	}
}
