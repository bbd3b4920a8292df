package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Shimizu-Technology/quizcards-api/internal/database"
	"github.com/Shimizu-Technology/quizcards-api/internal/handlers"
	"github.com/Shimizu-Technology/quizcards-api/internal/middleware"
	"github.com/Shimizu-Technology/quizcards-api/internal/models"
	"github.com/Shimizu-Technology/quizcards-api/internal/quiz"
	"github.com/Shimizu-Technology/quizcards-api/internal/services/worker"
)

const secret = "router-test-secret"

type ownedDecks struct {
	decks   map[string]models.Deck
	deleted []string
}

func (o *ownedDecks) GetDeck(ctx context.Context, id, sessionID string) (*models.Deck, error) {
	d, ok := o.decks[id]
	if !ok || d.SessionID != sessionID {
		return nil, database.ErrDeckNotFound
	}
	return &d, nil
}

func (o *ownedDecks) ListDecks(ctx context.Context, sessionID string, limit int) ([]models.Deck, error) {
	var out []models.Deck
	for _, d := range o.decks {
		if d.SessionID == sessionID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (o *ownedDecks) DeleteDeck(ctx context.Context, id, sessionID string) error {
	if _, err := o.GetDeck(ctx, id, sessionID); err != nil {
		return err
	}
	delete(o.decks, id)
	o.deleted = append(o.deleted, id)
	return nil
}

func (o *ownedDecks) HealthCheck(ctx context.Context) error { return nil }

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	r, _ := newEngineWithHandler(t)
	return r
}

func newEngineWithHandler(t *testing.T) (*gin.Engine, *handlers.Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()

	pool := worker.NewPool(1, 1, quiz.NewPipeline(nil, nil, nil, log), log)
	t.Cleanup(pool.Stop)

	h := handlers.NewHandler(quiz.NewRegistry(time.Hour, log), pool, handlers.Options{
		Version:        "test",
		JWTSecret:      secret,
		MaxUploadBytes: 1 << 20,
	}, log)

	return Setup(h, Config{
		JWTSecret:      secret,
		AllowedOrigins: []string{"http://localhost:5173"},
		RateLimiter:    middleware.NewRateLimiter(100),
	}, log), h
}

func bearer(t *testing.T, method, path, sessionID string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if sessionID != "" {
		token, err := middleware.GenerateSessionToken(sessionID, secret)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestSetup_SessionRoutesRequireToken(t *testing.T) {
	r := newEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var created models.CreateSessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	path := "/api/v1/sessions/" + created.Session.ID

	// No token.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Token for another session.
	other, err := middleware.GenerateSessionToken("someone-else", secret)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+other)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Own token.
	req = httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+created.Token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSetup_PublicRoutes(t *testing.T) {
	r := newEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, bearer(t, http.MethodGet, "/api/v1/decks", "sess-1"))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, "no database configured")
}

func TestSetup_DeckRoutesScopedToSession(t *testing.T) {
	r, h := newEngineWithHandler(t)
	const deckID = "0f8fad5b-d9cb-469f-a165-70867728950e"
	store := &ownedDecks{decks: map[string]models.Deck{
		deckID: {ID: deckID, SessionID: "owner", Filename: "cells.pdf", Questions: []byte(`[]`)},
	}}
	h.Decks = store

	tests := []struct {
		name    string
		method  string
		path    string
		session string
		want    int
	}{
		{"anonymous list", http.MethodGet, "/api/v1/decks", "", http.StatusUnauthorized},
		{"anonymous get", http.MethodGet, "/api/v1/decks/" + deckID, "", http.StatusUnauthorized},
		{"anonymous delete", http.MethodDelete, "/api/v1/decks/" + deckID, "", http.StatusUnauthorized},
		{"anonymous export", http.MethodGet, "/api/v1/decks/" + deckID + "/export", "", http.StatusUnauthorized},
		{"other session get", http.MethodGet, "/api/v1/decks/" + deckID, "intruder", http.StatusNotFound},
		{"other session delete", http.MethodDelete, "/api/v1/decks/" + deckID, "intruder", http.StatusNotFound},
		{"other session export", http.MethodGet, "/api/v1/decks/" + deckID + "/export", "intruder", http.StatusNotFound},
		{"owner get", http.MethodGet, "/api/v1/decks/" + deckID, "owner", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, bearer(t, tt.method, tt.path, tt.session))
			assert.Equal(t, tt.want, w.Code)
		})
	}
	assert.Empty(t, store.deleted)

	// Another session's listing does not include the owner's deck.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, bearer(t, http.MethodGet, "/api/v1/decks", "intruder"))
	require.Equal(t, http.StatusOK, w.Code)
	var list models.DeckListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Zero(t, list.Total)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, bearer(t, http.MethodDelete, "/api/v1/decks/"+deckID, "owner"))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{deckID}, store.deleted)
}

func TestSetup_CORSPreflight(t *testing.T) {
	r := newEngine(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sessions", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}
