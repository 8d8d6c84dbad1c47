package capture

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"motion-recorder-go/internal/models"
)

// Service opens camera streams through OpenCV's FFmpeg backend
type Service struct {
	cameraID string
	ffmpeg   map[string]string
}

// NewService creates a capture service for one camera
func NewService(cameraID string) *Service {
	return &Service{
		cameraID: cameraID,
		ffmpeg: map[string]string{
			"rtsp_transport":      "tcp",
			"stimeout":            "5000000", // 5s
			"rw_timeout":          "5000000",
			"fflags":              "nobuffer",
			"flags":               "low_delay",
			"analyzeduration":     "500000",
			"probesize":           "2000000",
			"allowed_media_types": "video",
			"reconnect":           "1",
			"reconnect_streamed":  "1",
			"reconnect_delay_max": "2",
		},
	}
}

// configureFFmpegOptions exports the capture options OpenCV's FFmpeg backend reads at open time
func (s *Service) configureFFmpegOptions() {
	keys := make([]string, 0, len(s.ffmpeg))
	for k := range s.ffmpeg {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	opts := make([]string, 0, len(keys))
	for _, k := range keys {
		opts = append(opts, k+";"+s.ffmpeg[k])
	}
	value := strings.Join(opts, "|")
	os.Setenv("OPENCV_FFMPEG_CAPTURE_OPTIONS", value)

	log.Debug().Str("ffmpeg_options", value).Msg("FFmpeg options configured for OpenCV")
}

// Open connects to the stream and fixes its geometry. Failure is a *models.ConnectionError.
func (s *Service) Open(ctx context.Context, url string) (*Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.configureFFmpegOptions()

	vc, err := gocv.OpenVideoCaptureWithAPI(url, gocv.VideoCaptureFFmpeg)
	if err != nil {
		if vc != nil {
			vc.Close()
		}
		return nil, &models.ConnectionError{URL: url, Err: err}
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, &models.ConnectionError{URL: url, Err: fmt.Errorf("stream could not be opened")}
	}
	vc.Set(gocv.VideoCaptureBufferSize, 1)

	src := &Source{
		cameraID: s.cameraID,
		url:      url,
		capture:  vc,
		mat:      gocv.NewMat(),
		width:    int(vc.Get(gocv.VideoCaptureFrameWidth)),
		height:   int(vc.Get(gocv.VideoCaptureFrameHeight)),
		fps:      vc.Get(gocv.VideoCaptureFPS),
	}

	// Some backends only report geometry once a frame has been decoded.
	if src.width <= 0 || src.height <= 0 {
		first, err := src.grab()
		if err != nil {
			src.Close()
			return nil, &models.ConnectionError{URL: url, Err: fmt.Errorf("read first frame: %w", err)}
		}
		src.width, src.height = first.Width, first.Height
		src.pending = first
	}

	log.Info().
		Str("camera_id", s.cameraID).
		Str("url", models.RedactURL(url)).
		Int("width", src.width).
		Int("height", src.height).
		Float64("fps", src.fps).
		Msg("Video capture opened")

	return src, nil
}

// Source is one open connection to the camera
type Source struct {
	cameraID string
	url      string
	capture  *gocv.VideoCapture
	mat      gocv.Mat
	width    int
	height   int
	fps      float64
	seq      int64
	pending  *models.Frame
}

// Size returns the geometry fixed when the source was opened
func (s *Source) Size() (int, int) {
	return s.width, s.height
}

// FPS returns the frame rate the stream advertises, or 0 when unknown
func (s *Source) FPS() float64 {
	return s.fps
}

// Read blocks until the next frame is decoded. A frame whose geometry differs from
// Size wraps models.ErrGeometryChanged.
func (s *Source) Read() (*models.Frame, error) {
	if s.pending != nil {
		f := s.pending
		s.pending = nil
		return f, nil
	}

	f, err := s.grab()
	if err != nil {
		return nil, err
	}
	if f.Width != s.width || f.Height != s.height {
		return nil, fmt.Errorf("frame %d is %dx%d, session is %dx%d: %w",
			f.Seq, f.Width, f.Height, s.width, s.height, models.ErrGeometryChanged)
	}
	return f, nil
}

func (s *Source) grab() (*models.Frame, error) {
	if ok := s.capture.Read(&s.mat); !ok {
		return nil, &models.ConnectionError{URL: s.url, Err: models.ErrReadFailed}
	}
	if s.mat.Empty() {
		return nil, models.ErrEmptyFrame
	}

	switch s.mat.Channels() {
	case 1:
		gocv.CvtColor(s.mat, &s.mat, gocv.ColorGrayToBGR)
	case 4:
		gocv.CvtColor(s.mat, &s.mat, gocv.ColorBGRAToBGR)
	}

	s.seq++
	return &models.Frame{
		CameraID:  s.cameraID,
		Data:      s.mat.ToBytes(),
		Timestamp: time.Now(),
		Seq:       s.seq,
		Width:     s.mat.Cols(),
		Height:    s.mat.Rows(),
		Format:    models.FrameFormatBGR24,
	}, nil
}

// Close releases the capture handle
func (s *Source) Close() error {
	s.mat.Close()
	return s.capture.Close()
}

// Probe opens the stream, reads up to frames frames within timeout and reports what it saw
func (s *Service) Probe(ctx context.Context, url string, frames int, timeout time.Duration) *models.ProbeResult {
	result := &models.ProbeResult{Message: "camera stream validation failed"}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	src, err := s.Open(ctx, url)
	if err != nil {
		result.ErrorDetail = err.Error()
		log.Warn().Err(err).Msg("Camera probe failed")
		return result
	}
	defer src.Close()

	type readResult struct {
		read int
		err  error
	}
	done := make(chan readResult, 1)
	go func() {
		read, err := readFrames(ctx, src, frames)
		done <- readResult{read: read, err: err}
	}()

	select {
	case r := <-done:
		result.FramesRead = r.read
		if r.err != nil {
			result.ErrorDetail = r.err.Error()
			return result
		}
	case <-ctx.Done():
		result.ErrorDetail = fmt.Sprintf("timeout reading from stream (%s limit)", timeout)
		// the reader goroutine still owns src; wait so Close does not race the read
		r := <-done
		result.FramesRead = r.read
		return result
	}

	result.Valid = true
	result.Message = "camera stream is valid and accessible"
	result.Width, result.Height = src.Size()
	result.FPS = src.FPS()

	log.Info().
		Str("url", models.RedactURL(url)).
		Int("width", result.Width).
		Int("height", result.Height).
		Float64("fps", result.FPS).
		Int("frames_read", result.FramesRead).
		Msg("Camera probe successful")

	return result
}

type frameReader interface {
	Read() (*models.Frame, error)
}

// readFrames reads up to n frames, stopping early once ctx is done
func readFrames(ctx context.Context, r frameReader, n int) (int, error) {
	read := 0
	for read < n {
		if err := ctx.Err(); err != nil {
			return read, err
		}
		if _, err := r.Read(); err != nil {
			return read, err
		}
		read++
	}
	return read, nil
}
