package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every environment-driven setting the backend needs.
type Config struct {
	OpenAIKey    string
	Model        string
	SystemPrompt string
	MaxTokens    int

	DatabaseURL string
	SecretKey   string
	ListenAddr  string
	CORSOrigins []string

	MaxAttempts    int
	BackoffBase    time.Duration
	BackoffCap     time.Duration
	RequestTimeout time.Duration
}

const defaultSystemPrompt = "You are a helpful medical assistant. Provide accurate medical information " +
	"while being concise and professional. Always remind users to consult healthcare " +
	"professionals for specific medical advice."

// Load reads .env (when present) and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("[config] no .env file loaded: %v", err)
	}

	cfg := Config{
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		Model:        getenvDefault("OPENAI_MODEL", "gpt-3.5-turbo"),
		SystemPrompt: getenvDefault("SYSTEM_PROMPT", defaultSystemPrompt),
		MaxTokens:    getenvIntDefault("MAX_TOKENS", 500),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		SecretKey:   os.Getenv("SECRET_KEY"),
		ListenAddr:  getenvDefault("LISTEN_ADDR", ":5000"),
		CORSOrigins: splitList(getenvDefault("CORS_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")),

		MaxAttempts:    getenvIntDefault("CHAT_MAX_ATTEMPTS", 3),
		BackoffBase:    getenvDurationDefault("CHAT_BACKOFF_BASE", time.Second),
		BackoffCap:     getenvDurationDefault("CHAT_BACKOFF_CAP", 8*time.Second),
		RequestTimeout: getenvDurationDefault("CHAT_REQUEST_TIMEOUT", 30*time.Second),
	}

	if cfg.OpenAIKey == "" {
		return cfg, errors.New("OPENAI_API_KEY is required")
	}
	if cfg.SecretKey == "" {
		log.Printf("[config] SECRET_KEY not set, using development default")
		cfg.SecretKey = "dev-secret-key"
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvIntDefault(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid int for %s=%q, using default %d", key, v, def)
		return def
	}
	return n
}

func getenvDurationDefault(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[config] invalid duration for %s=%q, using default %s", key, v, def)
		return def
	}
	return d
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
