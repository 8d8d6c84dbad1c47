package motion

import (
	"fmt"

	"motion-recorder-go/internal/models"
)

// Plane is a single-channel smoothed image produced by an Analyzer.
type Plane interface {
	Close() error
}

// Background is the floating-point running estimate of the empty scene.
type Background interface {
	Close() error
}

// Analyzer is the pixel-level vision capability the detector relies on.
type Analyzer interface {
	// Smooth converts a frame to a single-channel blurred plane.
	Smooth(frame *models.Frame) (Plane, error)
	// Seed creates a background estimate initialized from p.
	Seed(p Plane) (Background, error)
	// Blend folds p into bg with decay weight alpha.
	Blend(bg Background, p Plane, alpha float64) error
	// ForEachContour binarizes and dilates |p - bg| and calls fn with the area of every
	// external contour until fn returns false.
	ForEachContour(bg Background, p Plane, fn func(area float64) bool) error
}

// Settings tunes the detector
type Settings struct {
	Alpha   float64
	MinArea float64
}

// Stats counts classifications for the current session
type Stats struct {
	Classified int64
	Seeds      int64
	Motion     int64
}

// Detector classifies frames as motion or no motion against an adaptive background.
// It is owned by a single session and is not safe for concurrent use.
type Detector struct {
	analyzer   Analyzer
	settings   Settings
	background Background
	stats      Stats
}

// NewDetector returns a detector with an uninitialized background
func NewDetector(analyzer Analyzer, settings Settings) *Detector {
	return &Detector{
		analyzer: analyzer,
		settings: settings,
	}
}

// Classify returns true iff some contour of the foreground mask reaches MinArea.
// The first frame after construction or Reseed only seeds the background and reports no motion.
func (d *Detector) Classify(frame *models.Frame) (bool, error) {
	plane, err := d.analyzer.Smooth(frame)
	if err != nil {
		return false, fmt.Errorf("smooth frame %d: %w", frame.Seq, err)
	}
	defer plane.Close()

	if d.background == nil {
		bg, err := d.analyzer.Seed(plane)
		if err != nil {
			return false, fmt.Errorf("seed background: %w", err)
		}
		d.background = bg
		d.stats.Seeds++
		return false, nil
	}

	if err := d.analyzer.Blend(d.background, plane, d.settings.Alpha); err != nil {
		return false, fmt.Errorf("blend background: %w", err)
	}

	motion := false
	err = d.analyzer.ForEachContour(d.background, plane, func(area float64) bool {
		if area >= d.settings.MinArea {
			motion = true
			return false
		}
		return true
	})
	if err != nil {
		return false, fmt.Errorf("contours: %w", err)
	}

	d.stats.Classified++
	if motion {
		d.stats.Motion++
	}
	return motion, nil
}

// Reseed drops the background so that the next frame becomes the seed frame.
func (d *Detector) Reseed() {
	if d.background != nil {
		d.background.Close()
		d.background = nil
	}
}

// Seeded reports whether the background has been initialized
func (d *Detector) Seeded() bool {
	return d.background != nil
}

// Stats returns the session counters
func (d *Detector) Stats() Stats {
	return d.stats
}

// Close releases the background model
func (d *Detector) Close() error {
	d.Reseed()
	return nil
}
