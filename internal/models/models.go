// Package models defines the data structures used throughout the application.
//
// Go Pattern: Models are plain structs with JSON tags for serialization.
// The `db` tags work with sqlx for database column mapping; structs without
// them never touch the database.
package models

import (
	"encoding/json"
	"time"
)

// PDFMediaType is the only declared media type the intake accepts.
const PDFMediaType = "application/pdf"

// UploadSource records which control delivered a file.
type UploadSource string

const (
	SourcePicker UploadSource = "picker"
	SourceDrop   UploadSource = "drop"
)

// UploadedFile is the PDF currently held by a quiz session.
// It is replaced wholesale on every accepted selection, never mutated.
type UploadedFile struct {
	Name       string
	MediaType  string
	Size       int64
	Data       []byte `json:"-"`
	Source     UploadSource
	UploadedAt time.Time
}

// QuizQuestion is a single flashcard.
type QuizQuestion struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Phase is the coarse processing state of a session.
// Go Pattern: string constants instead of enums.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
)

// Stage labels shown while a pipeline is in flight.
const (
	StageSummary   = "Generating summary"
	StageQuestions = "Generating questions"
)

// ProcessingState describes pipeline progress. Stage is only set while loading.
type ProcessingState struct {
	Phase Phase  `json:"phase"`
	Stage string `json:"stage,omitempty"`
}

// Idle is the resting processing state.
func Idle() ProcessingState { return ProcessingState{Phase: PhaseIdle} }

// Loading returns a loading state with the given stage label.
func Loading(stage string) ProcessingState {
	return ProcessingState{Phase: PhaseLoading, Stage: stage}
}

// Failure is the visible trace of the last aborted pipeline.
type Failure struct {
	Stage   string    `json:"stage"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Deck is a finished quiz set persisted for later review and export.
type Deck struct {
	ID            string          `json:"id" db:"id"`
	SessionID     string          `json:"session_id" db:"session_id"`
	Filename      string          `json:"filename" db:"filename"`
	Summary       string          `json:"summary" db:"summary"`
	Questions     json.RawMessage `json:"questions" db:"questions"` // JSONB
	QuestionCount int             `json:"question_count" db:"question_count"`
	PageCount     int             `json:"page_count" db:"page_count"`
	WordCount     int             `json:"word_count" db:"word_count"`
	ContentHash   string          `json:"content_hash" db:"content_hash"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// Cards decodes the stored question list.
func (d *Deck) Cards() ([]QuizQuestion, error) {
	var cards []QuizQuestion
	if len(d.Questions) == 0 {
		return cards, nil
	}
	if err := json.Unmarshal(d.Questions, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// CachedDeck is what the deck cache remembers for a document's text.
type CachedDeck struct {
	Summary   string         `json:"summary"`
	Questions []QuizQuestion `json:"questions"`
}

// --- Response DTOs ---

// FileView is the client-facing description of the held file.
type FileView struct {
	Name       string       `json:"name"`
	MediaType  string       `json:"media_type"`
	Size       int64        `json:"size"`
	Source     UploadSource `json:"source"`
	UploadedAt time.Time    `json:"uploaded_at"`
}

// CardView is the currently displayed flashcard. Answer is empty until flipped.
type CardView struct {
	Index    int    `json:"index"`
	Total    int    `json:"total"`
	Question string `json:"question"`
	Answer   string `json:"answer,omitempty"`
	Flipped  bool   `json:"flipped"`
}

// ActionView is the primary button state.
type ActionView struct {
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
	Visible bool   `json:"visible"`
}

// SessionView is everything a client needs to render a quiz session.
type SessionView struct {
	ID        string          `json:"id"`
	File      *FileView       `json:"file"`
	State     ProcessingState `json:"state"`
	Summary   string          `json:"summary,omitempty"`
	Card      *CardView       `json:"card,omitempty"`
	Action    ActionView      `json:"action"`
	Failure   *Failure        `json:"failure,omitempty"`
	Notice    string          `json:"notice,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CreateSessionResponse carries the session token. It is only returned once.
type CreateSessionResponse struct {
	Session SessionView `json:"session"`
	Token   string      `json:"token"`
}

// ErrorResponse is a standard error format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// RejectedUploadResponse pairs the rejection with the unchanged session.
type RejectedUploadResponse struct {
	ErrorResponse
	Session SessionView `json:"session"`
}

// CardsResponse lists a session's whole quiz set.
type CardsResponse struct {
	Cards []QuizQuestion `json:"cards"`
	Total int            `json:"total"`
}

// DeckListResponse wraps a page of stored decks.
type DeckListResponse struct {
	Decks []Deck `json:"decks"`
	Total int    `json:"total"`
}

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	Database   string `json:"database"`
	Cache      string `json:"cache"`
	Workers    int    `json:"workers"`
	QueueDepth int    `json:"queue_depth"`
	Sessions   int    `json:"sessions"`
}
