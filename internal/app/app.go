package app

import (
	"context"
	"log"
	"time"

	"github.com/crudai-app/backend/internal/auth"
	"github.com/crudai-app/backend/internal/config"
	db "github.com/crudai-app/backend/internal/core/database"
	"github.com/crudai-app/backend/internal/core/llm"
)

type App struct {
	DBClient db.DbClient
	Server   *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Database initialized and ready.")

	verifier := auth.NewVerifier(cfg)

	ollama := llm.NewOllamaClient(cfg.OllamaBaseURL, cfg.OllamaModel)
	log.Printf("Ollama client initialized with URL: %s, Model: %s", cfg.OllamaBaseURL, cfg.OllamaModel)

	server := NewServer(cfg, dbClient, verifier, ollama)

	return &App{DBClient: dbClient, Server: server}, nil
}

func (a *App) Close() {
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
