package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"motion-recorder-go/internal/models"
)

// Sink consumes events off the bus. Handle is called from the single dispatcher goroutine.
type Sink interface {
	Name() string
	Handle(ctx context.Context, event models.Event) error
}

// Bus decouples the frame loop from event consumers. Publish never blocks: when the
// buffer is full the event is dropped.
type Bus struct {
	ch            chan models.Event
	done          chan struct{}
	handleTimeout time.Duration

	mu      sync.RWMutex
	sinks   []Sink
	started bool
	closed  bool

	published atomic.Int64
	dropped   atomic.Int64
}

// NewBus creates a bus holding up to size undelivered events
func NewBus(size int) *Bus {
	if size <= 0 {
		size = 1
	}
	return &Bus{
		ch:            make(chan models.Event, size),
		done:          make(chan struct{}),
		handleTimeout: 5 * time.Second,
	}
}

// Register adds a sink. Sinks registered after Start are picked up with the next event.
func (b *Bus) Register(sink Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, sink)
	log.Info().Str("sink", sink.Name()).Msg("Event sink registered")
}

// Start launches the dispatcher
func (b *Bus) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return
	}
	b.started = true
	go b.dispatch()
}

// Publish enqueues an event without blocking
func (b *Bus) Publish(event models.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	select {
	case b.ch <- event:
		b.published.Add(1)
	default:
		b.dropped.Add(1)
		log.Debug().
			Str("event_type", string(event.Type)).
			Str("session_id", event.SessionID).
			Msg("Event buffer full, dropping event")
	}
}

// Stats returns how many events were accepted and dropped
func (b *Bus) Stats() (published, dropped int64) {
	return b.published.Load(), b.dropped.Load()
}

func (b *Bus) dispatch() {
	defer close(b.done)
	for event := range b.ch {
		b.mu.RLock()
		sinks := append([]Sink(nil), b.sinks...)
		b.mu.RUnlock()

		for _, sink := range sinks {
			ctx, cancel := context.WithTimeout(context.Background(), b.handleTimeout)
			if err := sink.Handle(ctx, event); err != nil {
				log.Warn().
					Err(err).
					Str("sink", sink.Name()).
					Str("event_type", string(event.Type)).
					Msg("Event sink failed")
			}
			cancel()
		}
	}
}

// Close stops accepting events and waits for the queued ones to be delivered
func (b *Bus) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.ch)
	started := b.started
	b.mu.Unlock()

	if !started {
		return nil
	}

	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
