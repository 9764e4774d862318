package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/zhouzirui/pdf-qa/frontend/internal/config"
	"github.com/zhouzirui/pdf-qa/frontend/internal/handler/persona"
	"github.com/zhouzirui/pdf-qa/frontend/internal/handler/screen"
	personaModel "github.com/zhouzirui/pdf-qa/frontend/internal/model/persona"
	"github.com/zhouzirui/pdf-qa/frontend/internal/model/qa"
	screenService "github.com/zhouzirui/pdf-qa/frontend/internal/service/screen"
	"github.com/zhouzirui/pdf-qa/frontend/pkg/utils"
)

// BackendStatus reports whether the PDF Q&A backend is reachable.
type BackendStatus interface {
	Health(ctx context.Context) (qa.Status, error)
}

// NewRouter wires HTTP routes to core services.
func NewRouter(cfg *config.Config, personas personaModel.Store, screens *screenService.Service, backend BackendStatus) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{cfg.Server.AllowedOrigin},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With"},
		MaxAge:         300,
	}))

	personaHandler := persona.New(personas)
	screenHandler := screen.New(screens, personas, cfg.Screen.MaxUploadBytes)

	screenHandler.RegisterRoutes(r)

	r.Route("/api", func(api chi.Router) {
		personaHandler.RegisterRoutes(api)
		screenHandler.RegisterAPIRoutes(api)

		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			handleHealth(w, r, backend)
		})
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request, backend BackendStatus) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, err := backend.Health(ctx)
	if err != nil {
		log.Printf("[health] backend unreachable: %v", err)
		utils.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "degraded",
			"backend": err.Error(),
		})
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"backend": status.Message,
	})
}
