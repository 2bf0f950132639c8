package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Sazoks/apptrix-test/internal/config"
	matchsvc "github.com/Sazoks/apptrix-test/internal/services/match"
	proximitysvc "github.com/Sazoks/apptrix-test/internal/services/proximity"
	"github.com/Sazoks/apptrix-test/internal/transport/http/handlers"
)

type Dependencies struct {
	MatchService     *matchsvc.Service
	ProximityService *proximitysvc.Service
	Directory        handlers.UserDirectory
	Logger           *zap.Logger
	Config           config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	clientsHandler := handlers.NewClientsHandler(
		deps.MatchService,
		deps.ProximityService,
		deps.Directory,
		deps.Config.Geo.MaxRadiusKM,
	)

	r.Get("/healthz", healthHandler.Get)
	r.Get("/health", healthHandler.Get)

	r.Route("/api/clients", func(r chi.Router) {
		r.Post("/{id}/like", clientsHandler.Like)
		r.Get("/list", clientsHandler.List)
		r.Get("/lovers", clientsHandler.Lovers)
	})
}
