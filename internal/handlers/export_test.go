// export_test.go contains tests for the deck export formats.
//
// Go Pattern: Table-driven tests are the standard Go testing pattern.
// You define a slice of test cases (each with a name, inputs, and expected
// outputs), then loop through them.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shimizu-Technology/quizcards-api/internal/models"
)

func TestExportDeck(t *testing.T) {
	env, _ := newDeckEnv(t)
	id := sampleStoredDeck().ID

	tests := []struct {
		format      string
		contentType string
		filename    string
		check       func(t *testing.T, body string)
	}{
		{
			format:      "json",
			contentType: "application/json; charset=utf-8",
			filename:    "Biology 101- Cells.json",
			check: func(t *testing.T, body string) {
				var out struct {
					Questions     []models.QuizQuestion `json:"questions"`
					QuestionCount int                   `json:"question_count"`
				}
				require.NoError(t, json.Unmarshal([]byte(body), &out))
				assert.Equal(t, 2, out.QuestionCount)
				assert.Equal(t, "Cell", out.Questions[0].Answer)
			},
		},
		{
			format:      "csv",
			contentType: "text/csv; charset=utf-8",
			filename:    "Biology 101- Cells.csv",
			check: func(t *testing.T, body string) {
				assert.Equal(t, "question,answer\nUnit of life?,Cell\nPowerhouse?,Mitochondria\n", body)
			},
		},
		{
			format:      "tsv",
			contentType: "text/tab-separated-values; charset=utf-8",
			filename:    "Biology 101- Cells.tsv",
			check: func(t *testing.T, body string) {
				assert.Equal(t, "Unit of life?\tCell\nPowerhouse?\tMitochondria\n", body)
			},
		},
		{
			format:      "md",
			contentType: "text/markdown; charset=utf-8",
			filename:    "Biology 101- Cells.md",
			check: func(t *testing.T, body string) {
				assert.True(t, strings.HasPrefix(body, "# Biology 101: Cells.pdf\n"))
				assert.Contains(t, body, "| Cards | 2 |")
				assert.Contains(t, body, "## Summary\n\nCells are the unit of life.")
				assert.Contains(t, body, "2. **Powerhouse?**\n   Mitochondria\n")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			w := env.do(ownerRequest(t, http.MethodGet, "/decks/"+id+"/export?format="+tt.format))
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.contentType, w.Header().Get("Content-Type"))
			assert.Equal(t, `attachment; filename="`+tt.filename+`"`, w.Header().Get("Content-Disposition"))
			tt.check(t, w.Body.String())
		})
	}
}

func TestExportDeck_Errors(t *testing.T) {
	env, _ := newDeckEnv(t)

	w := env.do(ownerRequest(t, http.MethodGet, "/decks/"+sampleStoredDeck().ID+"/export?format=pdf"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(ownerRequest(t, http.MethodGet, "/decks/missing/export"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTSVField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "Cell", "Cell"},
		{"tab", "a\tb", "a b"},
		{"newlines", "line one\r\nline two\nthree", "line one line two three"},
		{"padding", "  x  ", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tsvField(tt.input))
		})
	}
}

func TestExportName(t *testing.T) {
	tests := []struct {
		name     string
		deck     models.Deck
		expected string
	}{
		{"strips extension", models.Deck{Filename: "notes.pdf"}, "notes"},
		{"sanitizes", models.Deck{Filename: "a/b.pdf"}, "a-b"},
		{"falls back to id", models.Deck{ID: "0f8fad5b-d9cb", Filename: ".pdf"}, "quiz-0f8fad5b"},
		{"short id", models.Deck{ID: "abc"}, "quiz-abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, exportName(&tt.deck))
		})
	}
}

// TestSanitizeFilename verifies filename sanitization.
func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "clean filename",
			input:    "Lecture Notes",
			expected: "Lecture Notes",
		},
		{
			name:     "slashes and colons",
			input:    "Week 1/2: Cells",
			expected: "Week 1-2- Cells",
		},
		{
			name:     "special characters",
			input:    "What is ATP? <Review>",
			expected: "What is ATP- -Review-",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "long name gets truncated",
			input:    strings.Repeat("a", 200),
			expected: strings.Repeat("a", 100),
		},
		{
			name:     "truncation keeps whole runes",
			input:    strings.Repeat("a", 99) + "細胞",
			expected: strings.Repeat("a", 99),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sanitizeFilename(tt.input)
			if result != tt.expected {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
