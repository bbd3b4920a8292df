package questions

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIGenerator generates questions through an OpenAI-compatible chat API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
	count  int
	log    *zap.Logger
}

// NewOpenAI creates an OpenAI-backed generator. baseURL may be empty.
func NewOpenAI(apiKey, baseURL, model string, count int, log *zap.Logger) *OpenAIGenerator {
	g := &OpenAIGenerator{model: model, count: count, log: log}
	if apiKey == "" {
		return g
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	g.client = openai.NewClientWithConfig(cfg)
	return g
}

// Generate returns the first choice's content for the given summary.
func (g *OpenAIGenerator) Generate(ctx context.Context, summary string) (string, error) {
	if g.client == nil {
		return "", ErrNotConfigured
	}

	g.log.Debug("requesting questions", zap.String("provider", "openai"), zap.String("model", g.model), zap.Int("count", g.count))

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: temperature,
		Stream:      false,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildPrompt(summary, g.count),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
