// Package config handles application configuration.
//
// Configuration comes from environment variables (optionally seeded from a
// .env file) with sensible defaults. Viper does the lookups and type
// conversion; Load validates the result once at startup.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "dev-jwt-secret-change-in-production"

// Supported question generation providers.
const (
	ProviderCohere = "cohere"
	ProviderOpenAI = "openai"
)

// defaultModels is used when QUESTION_MODEL is unset.
var defaultModels = map[string]string{
	ProviderCohere: "command-r-08-2024",
	ProviderOpenAI: "gpt-4o-mini",
}

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port     string
	GinMode  string // "debug", "release", or "test"
	LogLevel string

	// Optional persistence; empty disables the feature
	DatabaseURL   string
	RedisAddress  string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// Cohere (summaries, and questions when provider is "cohere")
	CohereAPIKey  string
	CohereBaseURL string
	SummaryLength string

	// Question generation
	QuestionProvider string
	QuestionModel    string
	QuestionCount    int

	// OpenAI (questions when provider is "openai")
	OpenAIAPIKey  string
	OpenAIBaseURL string

	// Sessions
	JWTSecret        string
	SessionTTL       time.Duration
	ShowLoadingStage bool
	MaxUploadBytes   int64

	// Worker settings
	WorkerCount  int
	JobQueueSize int

	// Rate limiting: requests per minute per client IP; 0 disables
	RateLimit int

	// CORS
	AllowedOrigins []string
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Port:     v.GetString("PORT"),
		GinMode:  v.GetString("GIN_MODE"),
		LogLevel: v.GetString("LOG_LEVEL"),

		DatabaseURL:   v.GetString("DATABASE_URL"),
		RedisAddress:  v.GetString("REDIS_ADDRESS"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),
		CacheTTL:      v.GetDuration("CACHE_TTL"),

		CohereAPIKey:  v.GetString("COHERE_API_KEY"),
		CohereBaseURL: strings.TrimRight(v.GetString("COHERE_BASE_URL"), "/"),
		SummaryLength: v.GetString("SUMMARY_LENGTH"),

		QuestionProvider: strings.ToLower(v.GetString("QUESTION_PROVIDER")),
		QuestionModel:    v.GetString("QUESTION_MODEL"),
		QuestionCount:    v.GetInt("QUESTION_COUNT"),

		OpenAIAPIKey:  v.GetString("OPENAI_API_KEY"),
		OpenAIBaseURL: v.GetString("OPENAI_BASE_URL"),

		JWTSecret:        v.GetString("JWT_SECRET"),
		SessionTTL:       v.GetDuration("SESSION_TTL"),
		ShowLoadingStage: v.GetBool("SHOW_LOADING_STAGE"),
		MaxUploadBytes:   v.GetInt64("MAX_UPLOAD_MB") << 20,

		WorkerCount:  v.GetInt("WORKER_COUNT"),
		JobQueueSize: v.GetInt("JOB_QUEUE_SIZE"),

		RateLimit: v.GetInt("RATE_LIMIT"),

		// In production, set this to your frontend URL
		AllowedOrigins: splitOrigins(v.GetString("CORS_ORIGIN")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.QuestionModel == "" {
		cfg.QuestionModel = defaultModels[cfg.QuestionProvider]
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDRESS", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", 24*time.Hour)

	v.SetDefault("COHERE_API_KEY", "")
	v.SetDefault("COHERE_BASE_URL", "https://api.cohere.ai")
	v.SetDefault("SUMMARY_LENGTH", "medium")

	v.SetDefault("QUESTION_PROVIDER", ProviderCohere)
	v.SetDefault("QUESTION_MODEL", "")
	v.SetDefault("QUESTION_COUNT", 10)

	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("OPENAI_BASE_URL", "")

	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("SESSION_TTL", 2*time.Hour)
	v.SetDefault("SHOW_LOADING_STAGE", true)
	v.SetDefault("MAX_UPLOAD_MB", 50)

	v.SetDefault("WORKER_COUNT", 3)
	v.SetDefault("JOB_QUEUE_SIZE", 100)
	v.SetDefault("RATE_LIMIT", 60)

	v.SetDefault("CORS_ORIGIN", "http://localhost:5173") // Vite dev server default
}

func (c *Config) validate() error {
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("unknown GIN_MODE %q", c.GinMode)
	}

	switch c.QuestionProvider {
	case ProviderCohere, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown QUESTION_PROVIDER %q; use %q or %q", c.QuestionProvider, ProviderCohere, ProviderOpenAI)
	}

	if c.QuestionCount < 1 {
		return fmt.Errorf("QUESTION_COUNT must be at least 1, got %d", c.QuestionCount)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("WORKER_COUNT must be at least 1, got %d", c.WorkerCount)
	}
	if c.JobQueueSize < 1 {
		return fmt.Errorf("JOB_QUEUE_SIZE must be at least 1, got %d", c.JobQueueSize)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	if len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("CORS_ORIGIN must list at least one origin")
	}

	// Release mode refuses to start with the default signing secret.
	if c.GinMode == "release" && c.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production; refusing to start with default secret")
	}

	return nil
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
