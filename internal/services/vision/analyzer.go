package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"motion-recorder-go/internal/models"
	"motion-recorder-go/internal/services/motion"
)

// Settings for the pixel pipeline
type Settings struct {
	BlurSize         int
	DiffThreshold    float64
	DilateIterations int
}

// Analyzer implements motion.Analyzer with OpenCV
type Analyzer struct {
	settings Settings
	kernel   gocv.Mat
}

type plane struct {
	mat gocv.Mat
}

func (p *plane) Close() error {
	return p.mat.Close()
}

// background holds the float32 accumulator
type background struct {
	acc gocv.Mat
}

func (b *background) Close() error {
	return b.acc.Close()
}

// NewAnalyzer creates an analyzer; Close releases its dilation kernel
func NewAnalyzer(settings Settings) *Analyzer {
	return &Analyzer{
		settings: settings,
		kernel:   gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3)),
	}
}

// Smooth converts a BGR24 frame into a blurred grayscale plane
func (a *Analyzer) Smooth(frame *models.Frame) (motion.Plane, error) {
	if len(frame.Data) != frame.ExpectedLen() {
		return nil, fmt.Errorf("frame %d has %d bytes, expected %d for %dx%d", frame.Seq, len(frame.Data), frame.ExpectedLen(), frame.Width, frame.Height)
	}

	src, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to create Mat from frame data: %w", err)
	}
	defer src.Close()

	gray := gocv.NewMat()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	k := a.settings.BlurSize
	gocv.GaussianBlur(gray, &gray, image.Pt(k, k), 0, 0, gocv.BorderDefault)

	return &plane{mat: gray}, nil
}

// Seed creates a float32 background from the plane
func (a *Analyzer) Seed(p motion.Plane) (motion.Background, error) {
	pl, err := asPlane(p)
	if err != nil {
		return nil, err
	}

	acc := gocv.NewMat()
	pl.mat.ConvertTo(&acc, gocv.MatTypeCV32F)
	return &background{acc: acc}, nil
}

// Blend runs accumulateWeighted on the background
func (a *Analyzer) Blend(bg motion.Background, p motion.Plane, alpha float64) error {
	b, pl, err := unwrap(bg, p)
	if err != nil {
		return err
	}
	if b.acc.Rows() != pl.mat.Rows() || b.acc.Cols() != pl.mat.Cols() {
		return models.ErrGeometryChanged
	}

	gocv.AccumulatedWeighted(pl.mat, &b.acc, alpha)
	return nil
}

// ForEachContour reports external contour areas of the thresholded, dilated difference
func (a *Analyzer) ForEachContour(bg motion.Background, p motion.Plane, fn func(area float64) bool) error {
	b, pl, err := unwrap(bg, p)
	if err != nil {
		return err
	}

	avg := gocv.NewMat()
	defer avg.Close()
	gocv.ConvertScaleAbs(b.acc, &avg, 1, 0)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.AbsDiff(pl.mat, avg, &mask)
	gocv.Threshold(mask, &mask, float32(a.settings.DiffThreshold), 255, gocv.ThresholdBinary)
	for i := 0; i < a.settings.DilateIterations; i++ {
		gocv.Dilate(mask, &mask, a.kernel)
	}

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	for i := 0; i < contours.Size(); i++ {
		if !fn(gocv.ContourArea(contours.At(i))) {
			break
		}
	}
	return nil
}

// Close releases the dilation kernel
func (a *Analyzer) Close() error {
	return a.kernel.Close()
}

func asPlane(p motion.Plane) (*plane, error) {
	pl, ok := p.(*plane)
	if !ok {
		return nil, fmt.Errorf("unsupported plane type %T", p)
	}
	return pl, nil
}

func unwrap(bg motion.Background, p motion.Plane) (*background, *plane, error) {
	b, ok := bg.(*background)
	if !ok {
		return nil, nil, fmt.Errorf("unsupported background type %T", bg)
	}
	pl, err := asPlane(p)
	if err != nil {
		return nil, nil, err
	}
	return b, pl, nil
}
