package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"docrag/internal/handlers"
	"docrag/internal/metrics"
	"docrag/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	ChatService     service.ChatService
	DocumentService service.DocumentService
	Health          http.Handler     // Optional; /api/health is not mounted when nil
	Metrics         *metrics.Metrics // Optional; /metrics is not mounted when nil
	MaxUploadBytes  int64
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	chatHandler := handlers.NewChatHandler(deps.ChatService)
	uploadHandler := handlers.NewUploadHandler(deps.DocumentService, deps.MaxUploadBytes)
	documentsHandler := handlers.NewDocumentsHandler(deps.DocumentService)

	r.Route("/api", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			r.Method(http.MethodPost, "/upload", uploadHandler)
			r.Get("/documents", documentsHandler.List)
			r.Get("/documents/{fileID}", documentsHandler.Get)
			r.Delete("/documents/{fileID}", documentsHandler.Delete)
			r.Get("/stats", documentsHandler.Stats)
		})
		r.Route("/v2", func(r chi.Router) {
			r.Method(http.MethodPost, "/chat", chatHandler)
		})
		if deps.Health != nil {
			r.Method(http.MethodGet, "/health", deps.Health)
		}
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Get("/", handlers.Root)

	return r
}
