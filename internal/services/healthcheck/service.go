package healthcheck

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"motion-recorder-go/internal/models"
)

// ServiceName is the health service key for the camera stream
const ServiceName = "recorder.CameraStream"

// Service exposes grpc.health.v1 and tracks whether a camera session is live.
// The process-level ("") status is SERVING while the server runs.
type Service struct {
	server *grpc.Server
	health *health.Server

	mu       sync.Mutex
	listener net.Listener
}

func NewService() *Service {
	s := &Service{
		server: grpc.NewServer(),
		health: health.NewServer(),
	}
	healthpb.RegisterHealthServer(s.server, s.health)
	reflection.Register(s.server)

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Listen binds addr; Serve must be called afterwards
func (s *Service) Listen(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.mu.Lock()
	s.listener = lis
	s.mu.Unlock()
	return nil
}

// Addr returns the bound address, or nil before Listen
func (s *Service) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve blocks until Shutdown
func (s *Service) Serve() error {
	s.mu.Lock()
	lis := s.listener
	s.mu.Unlock()
	if lis == nil {
		return fmt.Errorf("healthcheck: Listen was not called")
	}

	log.Info().Str("addr", lis.Addr().String()).Msg("gRPC health server listening")
	return s.server.Serve(lis)
}

func (s *Service) Name() string { return "grpc-health" }

// Handle flips the camera stream status on session boundaries
func (s *Service) Handle(_ context.Context, event models.Event) error {
	switch event.Type {
	case models.EventSessionStarted:
		s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	case models.EventSessionEnded:
		s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return nil
}

// Status returns the current status of a registered service
func (s *Service) Status(ctx context.Context, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := s.health.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}

// Shutdown marks everything NOT_SERVING and stops the server gracefully
func (s *Service) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return ctx.Err()
	}
}
