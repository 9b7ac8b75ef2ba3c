package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/crudai-app/backend/internal/api/handlers"
	"github.com/crudai-app/backend/internal/auth"
	"github.com/crudai-app/backend/internal/config"
	"github.com/crudai-app/backend/internal/core"
	db "github.com/crudai-app/backend/internal/core/database"
	"github.com/crudai-app/backend/internal/metrics"
	"github.com/crudai-app/backend/internal/services"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, dbclient db.DbClient, verifier auth.Verifier, llm core.LLMProvider) *Server {
	users := services.NewUserService(dbclient)

	userHandler := handlers.NewUserHandler(users)
	chatHandler := handlers.NewChatHandler(dbclient, users)
	messageHandler := handlers.NewMessageHandler(dbclient, users)
	aiHandler := handlers.NewAIHandler(dbclient, users, llm)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(countRequests)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// public endpoints
	r.Get("/", statusHandler(cfg))
	r.Handle("/metrics", metrics.Handler())

	// protected endpoints
	r.Group(func(protected chi.Router) {
		protected.Use(auth.Middleware(verifier))

		protected.Get("/users/me", userHandler.GetMe)
		protected.Put("/users/me", userHandler.UpdateMe)

		protected.Get("/chats", chatHandler.ListChats)
		protected.Post("/chats", chatHandler.CreateChat)
		protected.Get("/chats/{chatID}", chatHandler.GetChat)
		protected.Put("/chats/{chatID}", chatHandler.UpdateChat)
		protected.Delete("/chats/{chatID}", chatHandler.DeleteChat)

		protected.Get("/messages/{chatID}", messageHandler.ListMessages)
		protected.Post("/messages", messageHandler.CreateMessage)

		protected.Post("/ai/generate/{chatID}", aiHandler.Generate)
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv}
}

// statusHandler reports service metadata and auth configuration state.
func statusHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authStatus := "not configured"
		if cfg.AuthEnabled() {
			authStatus = "configured"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message":"CRUD AI Chat API","auth0_status":"` + authStatus + `"}`))
	}
}

func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.RequestsTotal.WithLabelValues(r.Method, route).Inc()
	})
}

// Start runs the HTTP server.
func (s *Server) Start() {
	log.Printf("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
