// Package summary condenses extracted document text through Cohere's
// summarize endpoint.
package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// maxInputLen caps the text sent upstream; the endpoint rejects huge bodies.
const maxInputLen = 100000

// ErrNotConfigured is returned when no API key has been set.
var ErrNotConfigured = errors.New("summarizer API key not configured; set COHERE_API_KEY")

// Service handles summary generation.
type Service struct {
	apiKey     string
	baseURL    string
	length     string
	httpClient *http.Client
	log        *zap.Logger
}

// New creates a new summary service.
func New(apiKey, baseURL, length string, log *zap.Logger) *Service {
	if length == "" {
		length = "medium"
	}
	return &Service{
		apiKey:  apiKey,
		baseURL: baseURL,
		length:  length,
		// The default http.Client has no timeout; LLM calls can be slow.
		httpClient: &http.Client{Timeout: 120 * time.Second},
		log:        log,
	}
}

// IsConfigured reports whether an API key is present.
func (s *Service) IsConfigured() bool {
	return s.apiKey != ""
}

type summarizeRequest struct {
	Text   string `json:"text"`
	Length string `json:"length"`
}

type summarizeResponse struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
	Message string `json:"message"`
}

// Summarize returns a condensed summary of text.
// A non-2xx status or a response without a summary is an error.
func (s *Service) Summarize(ctx context.Context, text string) (string, error) {
	if s.apiKey == "" {
		return "", ErrNotConfigured
	}

	text = clip(text, maxInputLen)

	jsonBody, err := json.Marshal(summarizeRequest{Text: text, Length: s.length})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/summarize", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	s.log.Debug("requesting summary", zap.Int("chars", len(text)), zap.String("length", s.length))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("summarize request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("summarize returned %d: %s", resp.StatusCode, truncate(string(body), 300))
	}

	var out summarizeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if out.Summary == "" {
		return "", fmt.Errorf("summarize response has no summary")
	}

	return out.Summary, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return clip(s, n) + "..."
}

// clip cuts text to at most n bytes without splitting a UTF-8 sequence.
func clip(text string, n int) string {
	if len(text) <= n {
		return text
	}
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return text[:n]
}
