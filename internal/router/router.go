// Package router sets up all HTTP routes for the API.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Shimizu-Technology/quizcards-api/internal/handlers"
	"github.com/Shimizu-Technology/quizcards-api/internal/middleware"
)

// Config holds the middleware settings for the router.
type Config struct {
	JWTSecret      string
	AllowedOrigins []string
	RateLimiter    *middleware.RateLimiter
}

// Setup creates and configures the Gin router with all routes.
func Setup(h *handlers.Handler, cfg Config, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(log), gin.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// --- Public Routes ---
	r.GET("/api/v1/health", h.HealthCheck)

	api := r.Group("/api/v1")
	if cfg.RateLimiter != nil {
		api.Use(cfg.RateLimiter.RateLimit())
	}

	api.POST("/sessions", h.CreateSession)

	// --- Session Routes (bearer token bound to :id) ---
	sessions := api.Group("/sessions/:id")
	sessions.Use(middleware.SessionAuth(cfg.JWTSecret))
	{
		sessions.GET("", h.GetSession)
		sessions.DELETE("", h.DeleteSession)

		// File intake: picker and drag-and-drop share one predicate
		sessions.PUT("/file", h.UploadFile)
		sessions.PUT("/drop", h.DropFile)

		sessions.POST("/quiz", h.CreateQuiz)

		// Flashcard navigation
		sessions.POST("/flip", h.FlipCard)
		sessions.POST("/next", h.NextCard)
		sessions.POST("/previous", h.PreviousCard)
		sessions.GET("/cards", h.ListCards)
	}

	// --- Stored Decks (scoped to the token's session) ---
	decks := api.Group("/decks")
	decks.Use(middleware.BearerAuth(cfg.JWTSecret))
	{
		decks.GET("", h.ListDecks)
		decks.GET("/:id", h.GetDeck)
		decks.DELETE("/:id", h.DeleteDeck)
		decks.GET("/:id/export", h.ExportDeck)
	}

	return r
}
