// decks.go serves stored decks. Routes sit behind BearerAuth and only
// reach decks produced by the token's session.
//
// GET    /api/v1/decks             List recent decks
// GET    /api/v1/decks/:id         Get a deck with its cards
// DELETE /api/v1/decks/:id         Delete a deck
// GET    /api/v1/decks/:id/export  Download (see export.go)
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Shimizu-Technology/quizcards-api/internal/database"
	"github.com/Shimizu-Technology/quizcards-api/internal/middleware"
	"github.com/Shimizu-Technology/quizcards-api/internal/models"
)

// ListDecks returns the session's recent decks, newest first.
// GET /api/v1/decks?limit=N
func (h *Handler) ListDecks(c *gin.Context) {
	if !h.requireDecks(c) {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	decks, err := h.Decks.ListDecks(c.Request.Context(), middleware.GetSessionID(c), limit)
	if err != nil {
		h.log.Error("failed to list decks", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "internal_error", "Failed to list decks")
		return
	}
	if decks == nil {
		decks = []models.Deck{}
	}

	c.JSON(http.StatusOK, models.DeckListResponse{Decks: decks, Total: len(decks)})
}

// GetDeck returns one stored deck.
// GET /api/v1/decks/:id
func (h *Handler) GetDeck(c *gin.Context) {
	d, ok := h.deck(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, d)
}

// DeleteDeck removes a stored deck.
// DELETE /api/v1/decks/:id
func (h *Handler) DeleteDeck(c *gin.Context) {
	if !h.requireDecks(c) {
		return
	}

	err := h.Decks.DeleteDeck(c.Request.Context(), c.Param("id"), middleware.GetSessionID(c))
	if errors.Is(err, database.ErrDeckNotFound) {
		abortWithError(c, http.StatusNotFound, "not_found", "Deck not found")
		return
	}
	if err != nil {
		h.log.Error("failed to delete deck", zap.String("deck_id", c.Param("id")), zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "internal_error", "Failed to delete deck")
		return
	}
	c.Status(http.StatusNoContent)
}

// deck loads :id or writes the error response.
func (h *Handler) deck(c *gin.Context) (*models.Deck, bool) {
	if !h.requireDecks(c) {
		return nil, false
	}

	d, err := h.Decks.GetDeck(c.Request.Context(), c.Param("id"), middleware.GetSessionID(c))
	if errors.Is(err, database.ErrDeckNotFound) {
		abortWithError(c, http.StatusNotFound, "not_found", "Deck not found")
		return nil, false
	}
	if err != nil {
		h.log.Error("failed to get deck", zap.String("deck_id", c.Param("id")), zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "internal_error", "Failed to load deck")
		return nil, false
	}
	return d, true
}

func (h *Handler) requireDecks(c *gin.Context) bool {
	if h.Decks == nil {
		abortWithError(c, http.StatusServiceUnavailable, "decks_disabled",
			"Deck storage is not configured (set DATABASE_URL)")
		return false
	}
	return true
}
