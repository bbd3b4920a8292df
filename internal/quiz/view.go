package quiz

import "github.com/Shimizu-Technology/quizcards-api/internal/models"

// Primary action labels.
const (
	LabelUpload = "Upload a PDF to start"
	LabelCreate = "Create a Quiz Cards"
)

// View renders the session for clients. With showStage off the loading
// stage label is omitted and clients only see the phase.
func (s *Session) View(showStage bool) models.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := models.SessionView{
		ID:        s.ID,
		State:     s.state,
		Summary:   s.summary,
		Notice:    s.notice,
		UpdatedAt: s.updatedAt,
	}
	if !showStage {
		v.State.Stage = ""
	}

	if s.file != nil {
		v.File = &models.FileView{
			Name:       s.file.Name,
			MediaType:  s.file.MediaType,
			Size:       s.file.Size,
			Source:     s.file.Source,
			UploadedAt: s.file.UploadedAt,
		}
	}

	if s.failure != nil {
		f := *s.failure
		v.Failure = &f
	}

	if card, ok := s.nav.Current(); ok {
		v.Card = &models.CardView{
			Index:    s.nav.Index(),
			Total:    s.nav.Len(),
			Question: card.Question,
			Flipped:  s.nav.Flipped(),
		}
		if s.nav.Flipped() {
			v.Card.Answer = card.Answer
		}
	}

	// The button is replaced by the flashcards once a quiz set exists.
	v.Action = models.ActionView{
		Label:   LabelUpload,
		Visible: s.nav.Len() == 0,
	}
	if s.file != nil {
		v.Action.Label = LabelCreate
		v.Action.Enabled = s.state.Phase == models.PhaseIdle
	}

	return v
}
