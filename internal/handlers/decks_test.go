package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shimizu-Technology/quizcards-api/internal/database"
	"github.com/Shimizu-Technology/quizcards-api/internal/models"
)

type fakeDecks struct {
	decks   map[string]*models.Deck
	deleted []string
	listErr error
	pingErr error
}

func (f *fakeDecks) GetDeck(ctx context.Context, id, sessionID string) (*models.Deck, error) {
	d, ok := f.decks[id]
	if !ok || d.SessionID != sessionID {
		return nil, database.ErrDeckNotFound
	}
	return d, nil
}

func (f *fakeDecks) ListDecks(ctx context.Context, sessionID string, limit int) ([]models.Deck, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Deck
	for _, d := range f.decks {
		if d.SessionID == sessionID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDecks) DeleteDeck(ctx context.Context, id, sessionID string) error {
	d, ok := f.decks[id]
	if !ok || d.SessionID != sessionID {
		return database.ErrDeckNotFound
	}
	delete(f.decks, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeDecks) HealthCheck(ctx context.Context) error { return f.pingErr }

// deckOwner is the session that produced sampleStoredDeck.
const deckOwner = "s1"

func sampleStoredDeck() *models.Deck {
	return &models.Deck{
		ID:            "0f8fad5b-d9cb-469f-a165-70867728950e",
		SessionID:     deckOwner,
		Filename:      "Biology 101: Cells.pdf",
		Summary:       "Cells are the unit of life.",
		Questions:     json.RawMessage(`[{"question":"Unit of life?","answer":"Cell"},{"question":"Powerhouse?","answer":"Mitochondria"}]`),
		QuestionCount: 2,
		PageCount:     4,
		WordCount:     900,
		CreatedAt:     time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
	}
}

// ownerRequest builds a request carrying the deck owner's token.
func ownerRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()
	return asSession(t, httptest.NewRequest(method, path, nil), deckOwner)
}

func newDeckEnv(t *testing.T) (*testEnv, *fakeDecks) {
	t.Helper()
	env := newTestEnv(t, 4, false)
	d := sampleStoredDeck()
	decks := &fakeDecks{decks: map[string]*models.Deck{d.ID: d}}
	env.handler.Decks = decks
	return env, decks
}

func TestDecks_DisabledWithoutDatabase(t *testing.T) {
	env := newTestEnv(t, 4, false)

	for _, path := range []string{"/decks", "/decks/x", "/decks/x/export"} {
		w := env.do(ownerRequest(t, http.MethodGet, path))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
	}
}

func TestDecks_RequireToken(t *testing.T) {
	env, decks := newDeckEnv(t)
	id := sampleStoredDeck().ID

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/decks"},
		{http.MethodGet, "/decks/" + id},
		{http.MethodDelete, "/decks/" + id},
		{http.MethodGet, "/decks/" + id + "/export"},
	} {
		w := env.do(httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, tc.method+" "+tc.path)
	}
	assert.Empty(t, decks.deleted)
}

func TestListDecks(t *testing.T) {
	env, decks := newDeckEnv(t)

	w := env.do(ownerRequest(t, http.MethodGet, "/decks?limit=10"))
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.DeckListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)

	decks.listErr = errors.New("connection reset")
	w = env.do(ownerRequest(t, http.MethodGet, "/decks"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestListDecks_OnlyOwnDecks(t *testing.T) {
	env, _ := newDeckEnv(t)

	w := env.do(asSession(t, httptest.NewRequest(http.MethodGet, "/decks", nil), "intruder"))
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.DeckListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Total)
	assert.NotNil(t, resp.Decks)
}

func TestGetAndDeleteDeck(t *testing.T) {
	env, decks := newDeckEnv(t)
	id := sampleStoredDeck().ID

	w := env.do(ownerRequest(t, http.MethodGet, "/decks/"+id))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Powerhouse?")

	w = env.do(ownerRequest(t, http.MethodDelete, "/decks/"+id))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{id}, decks.deleted)

	w = env.do(ownerRequest(t, http.MethodGet, "/decks/"+id))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(ownerRequest(t, http.MethodDelete, "/decks/"+id))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDecks_OtherSessionCannotReachDeck(t *testing.T) {
	env, decks := newDeckEnv(t)
	id := sampleStoredDeck().ID

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		w := env.do(asSession(t, httptest.NewRequest(method, "/decks/"+id, nil), "intruder"))
		assert.Equal(t, http.StatusNotFound, w.Code, method)
	}
	w := env.do(asSession(t, httptest.NewRequest(http.MethodGet, "/decks/"+id+"/export", nil), "intruder"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Empty(t, decks.deleted)
	assert.Contains(t, decks.decks, id)
}

func TestHealthCheck_ReportsDatabase(t *testing.T) {
	env, decks := newDeckEnv(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Contains(t, w.Body.String(), `"database":"healthy"`)

	decks.pingErr = errors.New("down")
	w = env.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Contains(t, w.Body.String(), `"database":"unhealthy: down"`)
}
