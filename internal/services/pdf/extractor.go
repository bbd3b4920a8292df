// Package pdf provides PDF text extraction.
//
// We use the ledongthuc/pdf library. It's a pure Go implementation, so the
// server stays a single binary with no CGO.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNotPDF is returned when the bytes do not start with the PDF magic.
var ErrNotPDF = errors.New("data is not a PDF document")

// ExtractionResult holds the output from a PDF text extraction.
type ExtractionResult struct {
	Text      string
	PageCount int
	WordCount int
}

// Extractor adapts Extract to the quiz pipeline's text extractor contract.
type Extractor struct{}

// NewExtractor creates a PDF text extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractText returns the plain text of a PDF held in memory.
func (e *Extractor) ExtractText(ctx context.Context, data []byte) (*ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Extract(data)
}

// Extract reads a PDF from memory and extracts all text content.
//
// The pdf library needs an io.ReaderAt for random access to the document
// structure, so uploads are buffered fully before extraction.
func Extract(data []byte) (result *ExtractionResult, err error) {
	if !ValidatePDF(data) {
		return nil, ErrNotPDF
	}

	// The parser panics on some truncated documents.
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("failed to parse PDF: %v", r)
		}
	}()

	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	pageCount := pdfReader.NumPage()
	if pageCount == 0 {
		return &ExtractionResult{}, nil
	}

	var allText strings.Builder
	for i := 1; i <= pageCount; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Image-only pages have no text layer; skip them.
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if allText.Len() > 0 {
			allText.WriteString("\n\n")
		}
		allText.WriteString(text)
	}

	extractedText := allText.String()
	return &ExtractionResult{
		Text:      extractedText,
		PageCount: pageCount,
		WordCount: countWords(extractedText),
	}, nil
}

// countWords counts the number of words in a text string.
func countWords(text string) int {
	return len(strings.Fields(text))
}

// ValidatePDF checks if the data looks like a PDF by checking the magic bytes.
func ValidatePDF(data []byte) bool {
	return len(data) >= 5 && string(data[:5]) == "%PDF-"
}
