package quiz

import "github.com/Shimizu-Technology/quizcards-api/internal/models"

// Navigator walks a quiz set as flashcards. The cursor wraps at both ends
// and moving always hides the answer again. Every operation is a no-op on
// an empty set.
//
// Navigator is not safe for concurrent use; Session serializes access.
type Navigator struct {
	cards   []models.QuizQuestion
	index   int
	flipped bool
}

// NewNavigator positions a navigator on the first card of cards.
// The slice is copied so the set cannot change underneath the cursor.
func NewNavigator(cards []models.QuizQuestion) *Navigator {
	return &Navigator{cards: append([]models.QuizQuestion(nil), cards...)}
}

// Len returns the size of the quiz set.
func (n *Navigator) Len() int { return len(n.cards) }

// Index returns the cursor position.
func (n *Navigator) Index() int { return n.index }

// Flipped reports whether the answer is revealed.
func (n *Navigator) Flipped() bool { return n.flipped }

// Current returns the card under the cursor.
func (n *Navigator) Current() (models.QuizQuestion, bool) {
	if len(n.cards) == 0 {
		return models.QuizQuestion{}, false
	}
	return n.cards[n.index], true
}

// Cards returns a copy of the quiz set.
func (n *Navigator) Cards() []models.QuizQuestion {
	return append([]models.QuizQuestion(nil), n.cards...)
}

// Flip toggles the reveal flag.
func (n *Navigator) Flip() {
	if len(n.cards) == 0 {
		return
	}
	n.flipped = !n.flipped
}

// Next advances to the following card, wrapping to the first.
func (n *Navigator) Next() {
	if len(n.cards) == 0 {
		return
	}
	n.flipped = false
	n.index = (n.index + 1) % len(n.cards)
}

// Previous moves to the preceding card, wrapping to the last.
func (n *Navigator) Previous() {
	if len(n.cards) == 0 {
		return
	}
	n.flipped = false
	n.index = (n.index - 1 + len(n.cards)) % len(n.cards)
}
