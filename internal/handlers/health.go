// Package handlers contains HTTP handler functions for the API.
//
// Go Pattern: Handlers in Gin receive a *gin.Context which provides:
// - Request data (params, query, body, headers)
// - Response methods (JSON, String, Status)
// - Middleware data (c.Get/c.Set)
//
// Related handlers hang off one Handler struct that holds the shared
// dependencies.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Shimizu-Technology/quizcards-api/internal/models"
	"github.com/Shimizu-Technology/quizcards-api/internal/quiz"
	"github.com/Shimizu-Technology/quizcards-api/internal/services/worker"
)

// DeckRepository is the stored-deck surface the handlers use. Every query
// is scoped to the owning session. *database.DB implements it.
type DeckRepository interface {
	GetDeck(ctx context.Context, id, sessionID string) (*models.Deck, error)
	ListDecks(ctx context.Context, sessionID string, limit int) ([]models.Deck, error)
	DeleteDeck(ctx context.Context, id, sessionID string) error
	HealthCheck(ctx context.Context) error
}

// Pinger reports backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options are the request-facing settings from config.
type Options struct {
	Version          string
	JWTSecret        string
	ShowLoadingStage bool
	MaxUploadBytes   int64
}

// Handler holds shared dependencies for all HTTP handlers.
// Go Pattern: Dependency injection via struct fields. Decks and Cache stay
// nil when their backend is not configured.
type Handler struct {
	Sessions *quiz.Registry
	Worker   *worker.Pool
	Decks    DeckRepository
	Cache    Pinger

	opts Options
	log  *zap.Logger
}

// NewHandler creates a new handler with all dependencies.
func NewHandler(sessions *quiz.Registry, wp *worker.Pool, opts Options, log *zap.Logger) *Handler {
	return &Handler{
		Sessions: sessions,
		Worker:   wp,
		opts:     opts,
		log:      log,
	}
}

// HealthCheck returns the API health status.
// GET /api/v1/health
func (h *Handler) HealthCheck(c *gin.Context) {
	ctx := c.Request.Context()

	dbStatus := "disabled"
	if h.Decks != nil {
		dbStatus = "healthy"
		if err := h.Decks.HealthCheck(ctx); err != nil {
			dbStatus = "unhealthy: " + err.Error()
		}
	}

	cacheStatus := "disabled"
	if h.Cache != nil {
		cacheStatus = "healthy"
		if err := h.Cache.Ping(ctx); err != nil {
			cacheStatus = "unhealthy: " + err.Error()
		}
	}

	c.JSON(http.StatusOK, models.HealthResponse{
		Status:     "ok",
		Version:    h.opts.Version,
		Database:   dbStatus,
		Cache:      cacheStatus,
		Workers:    h.Worker.WorkerCount(),
		QueueDepth: h.Worker.QueueSize(),
		Sessions:   h.Sessions.Len(),
	})
}

// abortWithError writes the standard error body.
func abortWithError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Error:   code,
		Message: msg,
		Code:    status,
	})
}
