package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"motion-recorder-go/internal/api/handlers"
	"motion-recorder-go/internal/config"
)

// Dependencies are the services the API reads from. Journal and Preview may be nil.
type Dependencies struct {
	Status  handlers.StatusSource
	Journal handlers.MotionJournal
	Preview http.Handler
	Events  http.Handler
	Bus     handlers.EventCounter
}

type Server struct {
	config *config.Config
	router *gin.Engine
	server *http.Server

	healthHandler  *handlers.HealthHandler
	statusHandler  *handlers.StatusHandler
	segmentHandler *handlers.SegmentHandler
	motionHandler  *handlers.MotionHandler
	streamHandler  *handlers.StreamHandler
	systemHandler  *handlers.SystemHandler
}

func NewServer(cfg *config.Config, deps Dependencies) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	return &Server{
		config:         cfg,
		router:         router,
		healthHandler:  handlers.NewHealthHandler(cfg.CameraID, cfg.Version),
		statusHandler:  handlers.NewStatusHandler(deps.Status),
		segmentHandler: handlers.NewSegmentHandler(cfg.StoragePath, cfg.SegmentExtension, deps.Status),
		motionHandler:  handlers.NewMotionHandler(deps.Journal),
		streamHandler:  handlers.NewStreamHandler(deps.Preview, deps.Events),
		systemHandler:  handlers.NewSystemHandler(cfg.CameraID, deps.Bus),
	}
}

func (s *Server) Setup() error {
	s.setupMiddleware()

	s.setupRoutes()

	s.setupSwagger()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Port),
		Handler: s.router,
	}

	return nil
}

// Start blocks until the server stops. A graceful Stop is not an error.
func (s *Server) Start() error {
	log.Info().Int("port", s.config.Port).Msg("Starting recorder API")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	log.Info().Msg("Stopping recorder API")
	return s.server.Shutdown(ctx)
}

func (s *Server) Handler() http.Handler {
	return s.router
}
