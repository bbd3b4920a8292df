package quiz

import (
	"context"
	"sync"
	"time"

	"github.com/Shimizu-Technology/quizcards-api/internal/models"
)

// Run identifies one pipeline execution. Results are only committed while
// Generation still matches the session's current generation.
type Run struct {
	SessionID  string
	Generation uint64
	File       models.UploadedFile
}

// Session is the state container for one quiz client.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu         sync.Mutex
	file       *models.UploadedFile
	summary    string
	nav        *Navigator
	state      models.ProcessingState
	failure    *models.Failure
	notice     string
	generation uint64
	cancelRun  context.CancelFunc
	updatedAt  time.Time
}

// NewSession creates an idle session with no file.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		CreatedAt: now,
		nav:       NewNavigator(nil),
		state:     models.Idle(),
		updatedAt: now,
	}
}

// BeginRun starts a pipeline for the held file. It clears earlier results,
// switches to the summary loading stage and returns the ticket a worker
// passes to Pipeline.Run.
func (s *Session) BeginRun() (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.runBlocker(); err != nil {
		return Run{}, err
	}

	s.resetDerived()
	s.state = models.Loading(models.StageSummary)

	return Run{
		SessionID:  s.ID,
		Generation: s.generation,
		File:       *s.file,
	}, nil
}

// CheckRun reports the error BeginRun would return, without changing
// anything.
func (s *Session) CheckRun() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runBlocker()
}

func (s *Session) runBlocker() error {
	if s.file == nil {
		return ErrNoFile
	}
	if s.state.Phase == models.PhaseLoading {
		return ErrRunInProgress
	}
	return nil
}

// Abort ends a run that never reached a worker.
func (s *Session) Abort(run Run, stage string, err error) {
	s.finish(run, &models.Failure{Stage: stage, Message: err.Error(), At: time.Now()})
}

// Close invalidates any in-flight run. Used when the session is discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetDerived()
	s.state = models.Idle()
}

// Flip toggles the current card's answer.
func (s *Session) Flip() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.nav.Flip()
}

// Next moves to the next card.
func (s *Session) Next() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.nav.Next()
}

// Previous moves to the previous card.
func (s *Session) Previous() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.nav.Previous()
}

// Cards returns a copy of the current quiz set.
func (s *Session) Cards() []models.QuizQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav.Cards()
}

// State returns the processing state.
func (s *Session) State() models.ProcessingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IdleSince reports when the session was last used, and whether it is idle.
func (s *Session) IdleSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt, s.state.Phase == models.PhaseIdle
}

// --- pipeline commits; every one is a no-op for a stale run ---

func (s *Session) current(run Run) bool {
	return run.Generation == s.generation
}

// attach registers the cancel func of a run that has started executing.
func (s *Session) attach(run Run, cancel context.CancelFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(run) {
		return false
	}
	s.cancelRun = cancel
	return true
}

func (s *Session) setStage(run Run, stage string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(run) {
		return false
	}
	s.state = models.Loading(stage)
	s.touch()
	return true
}

func (s *Session) commitSummary(run Run, summary string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(run) {
		return false
	}
	s.summary = summary
	s.touch()
	return true
}

func (s *Session) commitQuestions(run Run, cards []models.QuizQuestion) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(run) {
		return false
	}
	s.nav = NewNavigator(cards)
	s.touch()
	return true
}

// finish returns the session to idle, recording failure if non-nil.
func (s *Session) finish(run Run, failure *models.Failure) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(run) {
		return false
	}
	s.state = models.Idle()
	s.failure = failure
	s.cancelRun = nil
	s.touch()
	return true
}

// resetDerived clears everything derived from the held file and bumps the
// generation so results of earlier runs are discarded. Callers hold mu.
func (s *Session) resetDerived() {
	s.generation++
	if s.cancelRun != nil {
		s.cancelRun()
		s.cancelRun = nil
	}
	s.summary = ""
	s.nav = NewNavigator(nil)
	s.failure = nil
}

func (s *Session) touch() {
	s.updatedAt = time.Now()
}
