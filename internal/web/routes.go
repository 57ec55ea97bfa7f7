package web

import (
	"github.com/go-chi/chi/v5"

	"cratercat/internal/catalog"
	"cratercat/internal/index"
	"cratercat/internal/web/handlers"
)

func (s *Server) setupRoutes(reader catalog.Reader, idx *index.SpatialIndex) {
	cratersHandler := handlers.NewCratersHandler(reader, idx)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/craters", cratersHandler.List)
		r.Get("/craters/near", cratersHandler.Near)
		r.Get("/stats", cratersHandler.Stats)
	})
}
