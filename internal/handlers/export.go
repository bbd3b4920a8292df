// export.go handles deck export in multiple formats.
//
// Supported formats:
//   - json: Deck metadata, summary and cards
//   - csv: question,answer with a header row
//   - md: Markdown study sheet
//   - tsv: front<TAB>back lines, importable into Anki
//
// Go Pattern: Each export format is its own function. Adding a format is a
// new case in the switch and a new formatter.
package handlers

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Shimizu-Technology/quizcards-api/internal/models"
)

var validFormats = map[string]bool{"json": true, "csv": true, "md": true, "tsv": true}

// ExportDeck exports a stored deck in the requested format.
// GET /api/v1/decks/:id/export?format=json|csv|md|tsv
//
// Response headers are set for file download:
//   - Content-Type: appropriate MIME type
//   - Content-Disposition: attachment with filename
func (h *Handler) ExportDeck(c *gin.Context) {
	format := c.DefaultQuery("format", "json")

	// Validate format before doing any database work
	if !validFormats[format] {
		abortWithError(c, http.StatusBadRequest, "invalid_format", "Supported formats: json, csv, md, tsv")
		return
	}

	d, ok := h.deck(c)
	if !ok {
		return
	}

	cards, err := d.Cards()
	if err != nil {
		h.log.Error("stored deck has corrupt questions", zap.String("deck_id", d.ID), zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "internal_error", "Deck could not be decoded")
		return
	}

	filename := exportName(d)

	switch format {
	case "json":
		exportJSON(c, d, cards, filename)
	case "csv":
		exportCSV(c, cards, filename)
	case "md":
		exportMarkdown(c, d, cards, filename)
	case "tsv":
		exportTSV(c, cards, filename)
	}
}

// exportJSON returns the deck as a JSON document.
func exportJSON(c *gin.Context, d *models.Deck, cards []models.QuizQuestion, filename string) {
	exportData := map[string]interface{}{
		"id":             d.ID,
		"filename":       d.Filename,
		"summary":        d.Summary,
		"questions":      cards,
		"question_count": len(cards),
		"page_count":     d.PageCount,
		"word_count":     d.WordCount,
		"created_at":     d.CreatedAt,
	}

	data, err := json.MarshalIndent(exportData, "", "  ")
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "internal_error", "Failed to encode deck")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.json"`, filename))
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// exportCSV returns question,answer rows with a header.
func exportCSV(c *gin.Context, cards []models.QuizQuestion, filename string) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"question", "answer"})
	for _, q := range cards {
		w.Write([]string{q.Question, q.Answer})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		abortWithError(c, http.StatusInternalServerError, "internal_error", "Failed to encode deck")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// exportMarkdown returns a study sheet: metadata table, summary, then
// every card with its answer.
func exportMarkdown(c *gin.Context, d *models.Deck, cards []models.QuizQuestion, filename string) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", d.Filename))
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Pages | %d |\n", d.PageCount))
	sb.WriteString(fmt.Sprintf("| Words | %d |\n", d.WordCount))
	sb.WriteString(fmt.Sprintf("| Cards | %d |\n", len(cards)))
	sb.WriteString(fmt.Sprintf("| Created | %s |\n", d.CreatedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString("\n---\n\n")
	sb.WriteString("## Summary\n\n")
	sb.WriteString(d.Summary)
	sb.WriteString("\n\n## Cards\n\n")
	for i, q := range cards {
		sb.WriteString(fmt.Sprintf("%d. **%s**\n   %s\n", i+1, q.Question, q.Answer))
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.md"`, filename))
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(sb.String()))
}

// exportTSV returns one front<TAB>back line per card, no header.
// Anki's text importer reads this directly.
func exportTSV(c *gin.Context, cards []models.QuizQuestion, filename string) {
	var sb strings.Builder
	for _, q := range cards {
		sb.WriteString(tsvField(q.Question))
		sb.WriteString("\t")
		sb.WriteString(tsvField(q.Answer))
		sb.WriteString("\n")
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.tsv"`, filename))
	c.Data(http.StatusOK, "text/tab-separated-values; charset=utf-8", []byte(sb.String()))
}

// tsvField flattens tabs and line breaks so one card stays on one line.
func tsvField(s string) string {
	return strings.TrimSpace(strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ", "\r", " ").Replace(s))
}

// exportName builds the download name from the uploaded file's name.
func exportName(d *models.Deck) string {
	base := strings.TrimSuffix(d.Filename, filepath.Ext(d.Filename))
	name := sanitizeFilename(base)
	if name == "" {
		id := d.ID
		if len(id) > 8 {
			id = id[:8]
		}
		name = "quiz-" + id
	}
	return name
}

// sanitizeFilename removes characters that aren't safe for filenames.
// Go Pattern: Keep it simple. This only feeds the Content-Disposition
// header, so replacing unsafe characters with hyphens is enough.
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-", "*", "-",
		"?", "-", "\"", "-", "<", "-", ">", "-",
		"|", "-", "\n", " ", "\r", "",
	)
	name = replacer.Replace(name)

	// Collapse multiple hyphens/spaces
	for strings.Contains(name, "  ") {
		name = strings.ReplaceAll(name, "  ", " ")
	}
	for strings.Contains(name, "--") {
		name = strings.ReplaceAll(name, "--", "-")
	}

	name = strings.TrimSpace(name)

	if len(name) > 100 {
		n := 100
		for n > 0 && !utf8.RuneStart(name[n]) {
			n--
		}
		name = name[:n]
	}

	return name
}
