package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ProviderCohere, cfg.QuestionProvider)
	assert.Equal(t, "command-r-08-2024", cfg.QuestionModel)
	assert.Equal(t, 10, cfg.QuestionCount)
	assert.Equal(t, "medium", cfg.SummaryLength)
	assert.Equal(t, int64(50<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.ShowLoadingStage)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("QUESTION_PROVIDER", "OpenAI")
	t.Setenv("QUESTION_COUNT", "5")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("SHOW_LOADING_STAGE", "false")
	t.Setenv("COHERE_BASE_URL", "http://localhost:4010/")
	t.Setenv("CORS_ORIGIN", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, ProviderOpenAI, cfg.QuestionProvider)
	assert.Equal(t, "gpt-4o-mini", cfg.QuestionModel)
	assert.Equal(t, 5, cfg.QuestionCount)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.False(t, cfg.ShowLoadingStage)
	assert.Equal(t, "http://localhost:4010", cfg.CohereBaseURL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown provider", map[string]string{"QUESTION_PROVIDER": "llama"}},
		{"zero questions", map[string]string{"QUESTION_COUNT": "0"}},
		{"zero workers", map[string]string{"WORKER_COUNT": "0"}},
		{"release with default secret", map[string]string{"GIN_MODE": "release"}},
		{"unknown gin mode", map[string]string{"GIN_MODE": "prod"}},
		{"zero queue", map[string]string{"JOB_QUEUE_SIZE": "0"}},
		{"no cors origins", map[string]string{"CORS_ORIGIN": " , "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_EmptyOriginListNamesTheVariable(t *testing.T) {
	t.Setenv("CORS_ORIGIN", ",")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CORS_ORIGIN")
}
