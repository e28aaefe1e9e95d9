package web

import (
	"github.com/kozaktomas/barface/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	imageHandler := handlers.NewImageHandler(s.deps.Pipeline, s.log)
	pollyHandler := handlers.NewPollyHandler(s.config.Speech, s.deps.Speech, s.log)
	audioHandler := handlers.NewAudioHandler(s.config.Audio.File, s.log)
	configHandler := handlers.NewConfigHandler(s.config)

	s.router.Get("/health", handlers.HealthCheck)
	s.router.Get("/config", configHandler.Get)

	// Kiosk endpoints
	s.router.Post("/image", imageHandler.Post)
	s.router.Get("/polly", pollyHandler.Get)
	s.router.Get("/", audioHandler.Get)
	s.router.Head("/", audioHandler.Get)

	if s.deps.Faces != nil && s.deps.Profiles != nil {
		statsHandler := handlers.NewStatsHandler(s.config.Collection.ID, s.deps.Faces, s.deps.Profiles, s.log)
		s.router.Get("/stats", statsHandler.Get)
	}
}
