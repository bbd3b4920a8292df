package quiz

import (
	"fmt"
	"time"

	"github.com/Shimizu-Technology/quizcards-api/internal/models"
)

// AcceptsMediaType is the intake predicate shared by every upload path.
// Only the exact declared type application/pdf is accepted.
func AcceptsMediaType(mediaType string) bool {
	return mediaType == models.PDFMediaType
}

// SelectFile offers a candidate file to the session and reports whether it
// was accepted.
//
// A rejected candidate leaves the held file and all derived state alone and
// records a notice. An accepted one replaces the held file, clears summary,
// quiz set, cursor and failure, and invalidates any pipeline still running
// for the previous file.
func (s *Session) SelectFile(candidate models.UploadedFile) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if !AcceptsMediaType(candidate.MediaType) {
		s.notice = fmt.Sprintf("%q was not accepted: only PDF files (%s) can be used, got %q",
			candidate.Name, models.PDFMediaType, candidate.MediaType)
		return false
	}

	if candidate.UploadedAt.IsZero() {
		candidate.UploadedAt = time.Now()
	}
	if candidate.Size == 0 {
		candidate.Size = int64(len(candidate.Data))
	}

	s.file = &candidate
	s.notice = ""
	s.resetDerived()
	s.state = models.Idle()
	return true
}
