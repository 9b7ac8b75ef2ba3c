package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL    string
	Auth0Domain    string
	Auth0Audience  string
	Auth0Issuer    string
	Auth0Algorithm string
	OllamaBaseURL  string
	OllamaModel    string
	Port           string
}

// LoadConfig loads the environment variables and returns the config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		Auth0Domain:    getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:  getEnv("AUTH0_API_AUDIENCE", ""),
		Auth0Issuer:    getEnv("AUTH0_ISSUER", ""),
		Auth0Algorithm: getEnv("AUTH0_ALGORITHMS", "RS256"),
		OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:    getEnv("OLLAMA_MODEL", "llama3.2:3b"),
		Port:           getEnv("PORT", "8000"),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	if !cfg.AuthEnabled() {
		log.Println("WARN: Auth0 configuration incomplete, running without authentication")
	}

	return cfg
}

// AuthEnabled reports whether the identity provider is fully configured.
// When false the server substitutes a fixed development identity.
func (c *Config) AuthEnabled() bool {
	return c.Auth0Domain != "" && c.Auth0Audience != "" && c.Auth0Issuer != ""
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
