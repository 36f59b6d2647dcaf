package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/kettleofketchup/DraftForge-sub000/internal/config"
	"github.com/kettleofketchup/DraftForge-sub000/internal/hub"
	"github.com/kettleofketchup/DraftForge-sub000/internal/ws"
)

func SetupRoutes(h *hub.Hub, log *zap.Logger, cfg config.Config) http.Handler {
	r := chi.NewRouter()

	r.Post("/drafts", CreateDraft(h, log, cfg))
	r.Get("/drafts/{code}", GetDraft(h))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, log))

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r)
}
