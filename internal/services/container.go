package services

import (
	"context"
	"errors"
	"net"
	"strconv"

	"github.com/rs/zerolog/log"

	"motion-recorder-go/internal/config"
	"motion-recorder-go/internal/logging"
	"motion-recorder-go/internal/services/capture"
	"motion-recorder-go/internal/services/emitter"
	"motion-recorder-go/internal/services/events"
	"motion-recorder-go/internal/services/healthcheck"
	"motion-recorder-go/internal/services/journal"
	"motion-recorder-go/internal/services/messaging"
	"motion-recorder-go/internal/services/motion"
	"motion-recorder-go/internal/services/publisher/mjpeg"
	"motion-recorder-go/internal/services/publisher/websocket"
	"motion-recorder-go/internal/services/recorder"
	"motion-recorder-go/internal/services/supervisor"
	"motion-recorder-go/internal/services/vision"
)

// ServiceContainer holds all services. Optional ones are nil when disabled or unreachable.
type ServiceContainer struct {
	Config     *config.Config
	Capture    *capture.Service
	Analyzer   *vision.Analyzer
	Supervisor *supervisor.Supervisor
	Bus        *events.Bus
	Hub        *websocket.Hub

	Messaging *messaging.Service
	MQTT      *emitter.MQTTEmitter
	Journal   *journal.Store
	Health    *healthcheck.Service
	Preview   *mjpeg.Publisher

	cancel context.CancelFunc
}

// NewServiceContainer builds every service. Only the core can fail; broker and database
// connection errors disable the matching sink.
func NewServiceContainer(ctx context.Context, cfg *config.Config) (*ServiceContainer, error) {
	sc := &ServiceContainer{
		Config:  cfg,
		Capture: capture.NewService(cfg.CameraID),
		Analyzer: vision.NewAnalyzer(vision.Settings{
			BlurSize:         cfg.MotionBlurSize,
			DiffThreshold:    cfg.MotionDiffThreshold,
			DilateIterations: cfg.MotionDilateIterations,
		}),
		Bus: events.NewBus(cfg.EventBufferSize),
		Hub: websocket.NewHub(),
	}
	sc.Bus.Register(sc.Hub)

	if cfg.NatsURL != "" {
		svc, err := messaging.NewService(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("NATS unavailable, event publishing to NATS disabled")
		} else {
			sc.Messaging = svc
			sc.Bus.Register(svc)
		}
	}

	if cfg.MQTTBroker != "" {
		em := emitter.NewMQTTEmitter(cfg)
		if err := em.Connect(ctx); err != nil {
			log.Warn().Err(err).Msg("MQTT unavailable, event publishing to MQTT disabled")
		} else {
			sc.MQTT = em
			sc.Bus.Register(em)
		}
	}

	if cfg.DatabaseURL != "" {
		store, err := journal.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Warn().Err(err).Msg("Journal database unavailable, journaling disabled")
		} else {
			sc.Journal = store
			sc.Bus.Register(store)
		}
	}

	if cfg.GRPCHealthPort > 0 {
		hs := healthcheck.NewService()
		if err := hs.Listen(net.JoinHostPort("", strconv.Itoa(cfg.GRPCHealthPort))); err != nil {
			return nil, err
		}
		sc.Health = hs
		sc.Bus.Register(hs)
	}

	opts := []supervisor.Option{
		supervisor.WithPublisher(sc.Bus),
		supervisor.WithLogger(logging.NewServiceLogger(cfg, "supervisor")),
	}
	if cfg.PreviewEnabled {
		sc.Preview = mjpeg.NewPublisher(cfg.PreviewEveryN, cfg.PreviewQuality)
		opts = append(opts, supervisor.WithObserver(sc.Preview))
	}
	if cfg.VideoMaxSegments > 0 {
		opts = append(opts, supervisor.WithRetention(&recorder.Retention{
			Dir:         cfg.StoragePath,
			Extension:   cfg.SegmentExtension,
			MaxSegments: cfg.VideoMaxSegments,
		}))
	}

	streamURL := cfg.StreamURL()
	open := func(ctx context.Context) (supervisor.FrameSource, error) {
		src, err := sc.Capture.Open(ctx, streamURL)
		if err != nil {
			return nil, err
		}
		return src, nil
	}

	sc.Supervisor = supervisor.New(
		SupervisorSettings(cfg),
		open,
		sc.Analyzer,
		recorder.NewVideoEncoder(cfg.SegmentCodec, cfg.SegmentFPS),
		supervisor.NewRetryPolicy(cfg.ReconnectStrategy, cfg.ReconnectInterval,
			cfg.ReconnectBackoffMin, cfg.ReconnectBackoffMax, cfg.ReconnectJitterPct),
		opts...,
	)

	return sc, nil
}

// SupervisorSettings maps the configuration onto the session components
func SupervisorSettings(cfg *config.Config) supervisor.Settings {
	return supervisor.Settings{
		CameraID:     cfg.CameraID,
		WarmupFrames: cfg.WarmupFrames,
		StoragePath:  cfg.StoragePath,
		Extension:    cfg.SegmentExtension,
		Detector: motion.Settings{
			Alpha:   cfg.MotionAlpha,
			MinArea: cfg.MotionMinArea,
		},
		Recorder: recorder.Settings{
			RecordingDelay:   cfg.RecordingDelay,
			MaxSegmentFrames: cfg.MaxSegmentFrames,
			MinSegmentBytes:  cfg.MinSegmentBytes,
			ReseedOnRollover: cfg.ReseedOnRollover,
		},
	}
}

// Start launches the background services: event dispatch, preview encoding and the
// gRPC health server
func (sc *ServiceContainer) Start(ctx context.Context) {
	ctx, sc.cancel = context.WithCancel(ctx)

	sc.Bus.Start()

	if sc.Preview != nil {
		go sc.Preview.Run(ctx)
	}

	if sc.Health != nil {
		go func() {
			if err := sc.Health.Serve(); err != nil {
				log.Error().Err(err).Msg("gRPC health server stopped")
			}
		}()
	}
}

// Run blocks in the supervisor loop until ctx is cancelled
func (sc *ServiceContainer) Run(ctx context.Context) error {
	return sc.Supervisor.Run(ctx)
}

// Shutdown gracefully shuts down all services. Call after Run has returned so every
// session event is already queued.
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	var errs []error

	if err := sc.Bus.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if sc.cancel != nil {
		sc.cancel()
	}

	sc.Hub.Shutdown()

	if sc.Health != nil {
		if err := sc.Health.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if sc.Messaging != nil {
		if err := sc.Messaging.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if sc.MQTT != nil {
		sc.MQTT.Disconnect()
	}
	if sc.Journal != nil {
		sc.Journal.Close()
	}
	if err := sc.Analyzer.Close(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
