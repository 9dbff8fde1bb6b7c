package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"medichat/auth"
	"medichat/chat"
	"medichat/completion"
	"medichat/config"
	"medichat/database"
	"medichat/handlers"
	"medichat/models"
)

// main wires config, storage and the chat pipeline behind a gin router.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db := database.Init(cfg.DatabaseURL)
	database.MustMigrate(db, &models.User{}, &models.ChatMessage{})

	users := auth.NewService(db)
	client := completion.NewOpenAI(completion.OpenAIConfig{
		APIKey:         cfg.OpenAIKey,
		Model:          cfg.Model,
		SystemPrompt:   cfg.SystemPrompt,
		MaxTokens:      cfg.MaxTokens,
		RequestTimeout: cfg.RequestTimeout,
		Policy: completion.Policy{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   cfg.BackoffBase,
			CapDelay:    cfg.BackoffCap,
		},
	})
	exchanges := chat.NewService(chat.NewGormStore(db), client)

	r := gin.New()
	r.Use(gin.Logger(), handlers.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	store := cookie.NewStore([]byte(cfg.SecretKey))
	store.Options(sessions.Options{Path: "/", MaxAge: 7 * 24 * 60 * 60, HttpOnly: true})
	r.Use(sessions.Sessions("medichat_session", store))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "message": "Service is running"})
	})

	root := r.Group("/")
	handlers.RegisterAuthRoutes(root, users)
	handlers.RegisterChatRoutes(root, exchanges, users)

	log.Printf("medichat backend listening on %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
