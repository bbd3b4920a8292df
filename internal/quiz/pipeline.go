package quiz

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/Shimizu-Technology/quizcards-api/internal/models"
	"github.com/Shimizu-Technology/quizcards-api/internal/services/pdf"
	"github.com/Shimizu-Technology/quizcards-api/internal/services/questions"
)

// TextExtractor turns PDF bytes into plain text.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (*pdf.ExtractionResult, error)
}

// Summarizer condenses extracted text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// QuestionGenerator returns a model's raw reply with question/answer pairs.
type QuestionGenerator interface {
	Generate(ctx context.Context, summary string) (string, error)
}

// DeckCache remembers finished decks by content hash. A miss is (nil, nil).
type DeckCache interface {
	Get(ctx context.Context, contentHash string) (*models.CachedDeck, error)
	Set(ctx context.Context, contentHash string, deck models.CachedDeck) error
}

// DeckStore persists finished decks.
type DeckStore interface {
	CreateDeck(ctx context.Context, d *models.Deck) error
}

// Pipeline runs extraction → summary → questions for a session.
// Summarizing and question generation are strictly sequential, and the
// questions are always generated from the summary, never the raw text.
type Pipeline struct {
	extractor  TextExtractor
	summarizer Summarizer
	generator  QuestionGenerator
	cache      DeckCache
	decks      DeckStore
	log        *zap.Logger
}

// NewPipeline creates a pipeline without cache or deck store.
func NewPipeline(ext TextExtractor, sum Summarizer, gen QuestionGenerator, log *zap.Logger) *Pipeline {
	return &Pipeline{
		extractor:  ext,
		summarizer: sum,
		generator:  gen,
		log:        log,
	}
}

// SetCache enables the deck cache.
func (p *Pipeline) SetCache(c DeckCache) { p.cache = c }

// SetDeckStore enables deck persistence.
func (p *Pipeline) SetDeckStore(d DeckStore) { p.decks = d }

// ContentHash identifies a document by its extracted text.
func ContentHash(text string) string {
	sum := blake2b.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Run executes the pipeline for run and returns why it aborted, if it did.
//
// Whatever happens the session ends up idle, unless run has been superseded
// by a newer file or run, in which case nothing it produced is committed.
// Aborts are reported on the session as a Failure; a reply without usable
// questions is not an abort and leaves the quiz set empty.
func (p *Pipeline) Run(ctx context.Context, s *Session, run Run) (err error) {
	log := p.log.With(
		zap.String("session_id", s.ID),
		zap.Uint64("generation", run.Generation),
		zap.String("file", run.File.Name),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if !s.attach(run, cancel) {
		log.Info("run superseded before it started")
		return nil
	}

	stage := FailedExtraction
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
		}

		var failure *models.Failure
		if err != nil {
			failure = &models.Failure{Stage: stage, Message: err.Error(), At: time.Now()}
		}
		if !s.finish(run, failure) {
			log.Info("discarded result of superseded run")
			err = nil
		}
	}()

	started := time.Now()

	extraction, err := p.extractor.ExtractText(ctx, run.File.Data)
	if err != nil {
		log.Warn("text extraction failed", zap.Error(err))
		return fmt.Errorf("text extraction failed: %w", err)
	}
	text := strings.TrimSpace(extraction.Text)
	if text == "" {
		log.Warn("PDF has no extractable text", zap.Int("pages", extraction.PageCount))
		return ErrEmptyText
	}

	hash := ContentHash(text)
	if cached := p.lookup(ctx, hash, log); cached != nil {
		if s.commitSummary(run, cached.Summary) && s.commitQuestions(run, cached.Questions) {
			log.Info("quiz served from cache", zap.Int("questions", len(cached.Questions)))
		}
		return nil
	}

	stage = FailedSummarization
	summary, err := p.summarizer.Summarize(ctx, text)
	if err != nil {
		log.Warn("summarization failed", zap.Error(err))
		return fmt.Errorf("summarization failed: %w", err)
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		log.Warn("summarizer returned nothing")
		return ErrEmptySummary
	}
	if !s.commitSummary(run, summary) {
		return nil
	}

	stage = FailedQuestions
	if !s.setStage(run, models.StageQuestions) {
		return nil
	}

	raw, err := p.generator.Generate(ctx, summary)
	if err != nil {
		log.Warn("question generation failed", zap.Error(err))
		return fmt.Errorf("question generation failed: %w", err)
	}

	parsed, perr := questions.ParseQuestions(raw)
	if perr != nil {
		log.Warn("model reply produced no questions", zap.Error(perr), zap.Int("reply_chars", len(raw)))
		return nil
	}
	if parsed.Dropped > 0 {
		log.Warn("dropped malformed questions", zap.Int("dropped", parsed.Dropped), zap.Int("kept", len(parsed.Questions)))
	}

	if !s.commitQuestions(run, parsed.Questions) {
		return nil
	}

	log.Info("quiz generated",
		zap.Int("questions", len(parsed.Questions)),
		zap.Int("pages", extraction.PageCount),
		zap.Duration("took", time.Since(started)),
	)

	p.remember(ctx, log, run, hash, summary, parsed.Questions, extraction)
	return nil
}

// lookup consults the cache. Cache errors are logged and treated as misses.
func (p *Pipeline) lookup(ctx context.Context, hash string, log *zap.Logger) *models.CachedDeck {
	if p.cache == nil {
		return nil
	}
	cached, err := p.cache.Get(ctx, hash)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Warn("deck cache lookup failed", zap.Error(err))
		}
		return nil
	}
	if cached == nil || cached.Summary == "" || len(cached.Questions) == 0 {
		return nil
	}
	return cached
}

// remember writes a finished deck to the cache and the deck store.
// Neither failure affects the session.
func (p *Pipeline) remember(ctx context.Context, log *zap.Logger, run Run, hash, summary string, cards []models.QuizQuestion, extraction *pdf.ExtractionResult) {
	if p.cache != nil {
		if err := p.cache.Set(ctx, hash, models.CachedDeck{Summary: summary, Questions: cards}); err != nil {
			log.Warn("failed to cache deck", zap.Error(err))
		}
	}

	if p.decks == nil {
		return
	}

	questionsJSON, err := json.Marshal(cards)
	if err != nil {
		log.Warn("failed to encode deck", zap.Error(err))
		return
	}

	deck := &models.Deck{
		SessionID:     run.SessionID,
		Filename:      run.File.Name,
		Summary:       summary,
		Questions:     questionsJSON,
		QuestionCount: len(cards),
		PageCount:     extraction.PageCount,
		WordCount:     extraction.WordCount,
		ContentHash:   hash,
	}
	if err := p.decks.CreateDeck(ctx, deck); err != nil {
		log.Warn("failed to save deck", zap.Error(err))
		return
	}
	log.Info("deck saved", zap.String("deck_id", deck.ID))
}
