package recorder

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"motion-recorder-go/internal/models"
)

// VideoEncoder writes segments with OpenCV's VideoWriter
type VideoEncoder struct {
	Codec string
	FPS   float64
}

// NewVideoEncoder creates an encoder for a four character codec such as "XVID"
func NewVideoEncoder(codec string, fps float64) *VideoEncoder {
	return &VideoEncoder{Codec: codec, FPS: fps}
}

// Open creates the output file and returns a writer bound to the given geometry
func (e *VideoEncoder) Open(path string, width, height int) (SegmentWriter, error) {
	writer, err := gocv.VideoWriterFile(path, e.Codec, e.FPS, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create video writer: %w", err)
	}
	if !writer.IsOpened() {
		writer.Close()
		return nil, fmt.Errorf("video writer for %s (%s, %dx%d) did not open", path, e.Codec, width, height)
	}

	log.Debug().
		Str("path", path).
		Str("codec", e.Codec).
		Float64("fps", e.FPS).
		Int("width", width).
		Int("height", height).
		Msg("Opened segment writer")

	return &videoSegment{writer: writer, width: width, height: height}, nil
}

type videoSegment struct {
	writer *gocv.VideoWriter
	width  int
	height int
}

func (s *videoSegment) Write(frame *models.Frame) error {
	if frame.Width != s.width || frame.Height != s.height {
		return fmt.Errorf("frame %dx%d does not match segment %dx%d: %w",
			frame.Width, frame.Height, s.width, s.height, models.ErrGeometryChanged)
	}

	mat, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Data)
	if err != nil {
		return fmt.Errorf("failed to create Mat from frame data: %w", err)
	}
	defer mat.Close()

	return s.writer.Write(mat)
}

func (s *videoSegment) Close() error {
	return s.writer.Close()
}
