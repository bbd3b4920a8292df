// Package quiz holds the quiz session state machine: file intake, the
// extraction → summary → questions pipeline, and flashcard navigation.
//
// A Session is the single state container for one client. Intake and the
// pipeline own the file, summary, quiz set and processing state; the
// Navigator owns the cursor and reveal flag. All mutation goes through
// Session methods, which serialize access with a mutex because HTTP
// handlers and pipeline workers run on different goroutines.
package quiz

import "errors"

var (
	ErrSessionNotFound = errors.New("quiz session not found")
	ErrNoFile          = errors.New("no PDF selected")
	ErrRunInProgress   = errors.New("a quiz is already being generated")
	ErrEmptyText       = errors.New("no text could be extracted from the PDF")
	ErrEmptySummary    = errors.New("summarizer returned an empty summary")
)

// Failure stages recorded when a pipeline aborts.
const (
	FailedExtraction    = "extraction"
	FailedSummarization = "summarization"
	FailedQuestions     = "question_generation"
	FailedQueue         = "queue"
)
