package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"motion-recorder-go/internal/config"
	"motion-recorder-go/internal/models"
)

// Service publishes recorder events to NATS
type Service struct {
	conn    *nats.Conn
	subject string
}

func NewService(cfg *config.Config) (*Service, error) {
	opts := []nats.Option{
		nats.Name("motion-recorder-" + cfg.CameraID),
		nats.Timeout(cfg.NatsConnectTimeout),
		nats.ReconnectWait(cfg.NatsReconnectWait),
		nats.MaxReconnects(cfg.NatsMaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrlRedacted()).Msg("NATS reconnected")
		}),
	}

	conn, err := nats.Connect(cfg.NatsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Info().Str("url", models.RedactURL(cfg.NatsURL)).Msg("NATS connection established")

	return &Service{
		conn:    conn,
		subject: SubjectPrefix(cfg.EventsSubject, cfg.CameraID),
	}, nil
}

// SubjectPrefix returns "<base>.<camera>" with NATS token separators stripped from the camera id
func SubjectPrefix(base, cameraID string) string {
	token := strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(cameraID)
	return base + "." + token
}

// Subject returns the subject an event of the given type is published on
func (s *Service) Subject(typ models.EventType) string {
	return s.subject + "." + string(typ)
}

func (s *Service) Name() string { return "nats" }

// Handle publishes the event as JSON
func (s *Service) Handle(_ context.Context, event models.Event) error {
	return s.Publish(s.Subject(event.Type), event)
}

func (s *Service) Publish(subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return s.conn.Publish(subject, payload)
}

func (s *Service) IsConnected() bool {
	return s.conn != nil && s.conn.IsConnected()
}

func (s *Service) Shutdown(ctx context.Context) error {
	if s.conn != nil {
		if err := s.conn.Drain(); err != nil {
			log.Warn().Err(err).Msg("Failed to drain NATS connection gracefully, closing immediately")
			s.conn.Close()
		}
	}
	return nil
}
