package mjpeg

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/hybridgroup/mjpeg"
	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"motion-recorder-go/internal/models"
)

// EncodeFunc turns a BGR24 frame into JPEG bytes
type EncodeFunc func(frame *models.Frame, quality int) ([]byte, error)

// Publisher serves a live MJPEG preview of the frames the supervisor observes.
// Observe never blocks the frame loop: only the latest pending frame is kept.
type Publisher struct {
	everyN  int
	quality int
	encode  EncodeFunc
	stream  *mjpeg.Stream
	pending chan *models.Frame
	seen    atomic.Int64

	mu     sync.RWMutex
	latest []byte
}

func NewPublisher(everyN, quality int) *Publisher {
	if everyN <= 0 {
		everyN = 1
	}
	return &Publisher{
		everyN:  everyN,
		quality: quality,
		encode:  EncodeJPEG,
		stream:  mjpeg.NewStream(),
		pending: make(chan *models.Frame, 1),
	}
}

// EncodeJPEG encodes with OpenCV
func EncodeJPEG(frame *models.Frame, quality int) ([]byte, error) {
	mat, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to create Mat from frame data: %w", err)
	}
	defer mat.Close()

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	defer buf.Close()

	b := buf.GetBytes()
	jpegCopy := make([]byte, len(b))
	copy(jpegCopy, b)
	return jpegCopy, nil
}

// Observe hands every Nth frame to the encoder goroutine, replacing a frame still waiting
func (p *Publisher) Observe(frame *models.Frame) {
	if p.seen.Add(1)%int64(p.everyN) != 0 {
		return
	}

	select {
	case p.pending <- frame:
		return
	default:
	}
	select {
	case <-p.pending:
	default:
	}
	select {
	case p.pending <- frame:
	default:
	}
}

// Run encodes pending frames until ctx is done
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-p.pending:
			jpeg, err := p.encode(frame, p.quality)
			if err != nil {
				log.Debug().Err(err).Int64("seq", frame.Seq).Msg("Preview frame encoding failed")
				continue
			}
			p.mu.Lock()
			p.latest = jpeg
			p.mu.Unlock()
			p.stream.UpdateJPEG(jpeg)
		}
	}
}

// Latest returns the most recent preview JPEG, or nil before the first frame
func (p *Publisher) Latest() []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}

// ServeHTTP streams multipart/x-mixed-replace JPEG frames
func (p *Publisher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.stream.ServeHTTP(w, r)
}
