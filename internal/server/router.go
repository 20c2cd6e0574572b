package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/EnricoHuber/home-chatbot/internal/api/handlers"
	"github.com/EnricoHuber/home-chatbot/internal/api/middleware"
)

type RouterConfig struct {
	ChatHandler      *handlers.ChatHandler
	KnowledgeHandler *handlers.KnowledgeHandler
	HealthHandler    *handlers.HealthHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 10 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", cfg.HealthHandler.Health)

	r.Post("/chat", cfg.ChatHandler.Answer)

	r.Route("/knowledge", func(r chi.Router) {
		r.Post("/", cfg.KnowledgeHandler.Create)
		r.Post("/document", cfg.KnowledgeHandler.UploadDocument)
		r.Get("/stats", cfg.KnowledgeHandler.Stats)
		r.Delete("/{id}", cfg.KnowledgeHandler.Delete)
	})

	return r
}
