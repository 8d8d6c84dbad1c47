package api

func (s *Server) setupRoutes() {
	s.router.GET("/", s.healthHandler.RecorderInfo)
	s.router.GET("/health", s.healthHandler.HealthCheck)
	s.router.GET("/status", s.statusHandler.GetStatus)

	segments := s.router.Group("/segments")
	{
		segments.GET("", s.segmentHandler.ListSegments)
		segments.GET("/:name", s.segmentHandler.DownloadSegment)
	}

	s.router.GET("/motion-events", s.motionHandler.ListMotionEvents)

	s.router.GET("/preview", s.streamHandler.Preview)
	s.router.GET("/events/ws", s.streamHandler.Events)

	system := s.router.Group("/system")
	{
		system.GET("/stats", s.systemHandler.GetStats)
	}
}
