// Package questions asks a hosted chat model for flashcard question/answer
// pairs and turns its reply into a quiz set.
//
// Two providers are supported: Cohere's chat endpoint over plain HTTP, and
// any OpenAI-compatible endpoint through go-openai. Both return the model's
// raw text; ParseQuestions does the cleanup.
package questions

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

// temperature keeps answers short and factual.
const temperature = 0.3

// ErrNotConfigured is returned when the provider has no API key.
var ErrNotConfigured = errors.New("question generator API key not configured")

// CohereGenerator generates questions through Cohere's /v1/chat endpoint.
type CohereGenerator struct {
	apiKey     string
	baseURL    string
	model      string
	count      int
	httpClient *http.Client
	log        *zap.Logger
}

// NewCohere creates a Cohere-backed generator asking for count questions.
func NewCohere(apiKey, baseURL, model string, count int, log *zap.Logger) *CohereGenerator {
	return &CohereGenerator{
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		count:      count,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		log:        log,
	}
}

type cohereChatRequest struct {
	Model          string         `json:"model"`
	Message        string         `json:"message"`
	Temperature    float64        `json:"temperature"`
	Stream         bool           `json:"stream"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type cohereChatResponse struct {
	Text    string `json:"text"`
	Message string `json:"message"`
}

// Generate returns the model's raw reply for the given summary.
// An empty reply is not an error here; parsing turns it into an empty set.
func (g *CohereGenerator) Generate(ctx context.Context, summary string) (string, error) {
	if g.apiKey == "" {
		return "", ErrNotConfigured
	}

	jsonBody, err := json.Marshal(cohereChatRequest{
		Model:          g.model,
		Message:        BuildPrompt(summary, g.count),
		Temperature:    temperature,
		Stream:         false,
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/chat", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	g.log.Debug("requesting questions", zap.String("provider", "cohere"), zap.String("model", g.model), zap.Int("count", g.count))

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("chat returned %d: %s", resp.StatusCode, truncate(string(body), 300))
	}

	var out cohereChatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	return out.Text, nil
}

// truncate shortens s for error messages, backing off to a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
