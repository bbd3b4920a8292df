// Package main is the entry point for the Quiz Cards API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Shimizu-Technology/quizcards-api/internal/cache"
	"github.com/Shimizu-Technology/quizcards-api/internal/config"
	"github.com/Shimizu-Technology/quizcards-api/internal/database"
	"github.com/Shimizu-Technology/quizcards-api/internal/handlers"
	"github.com/Shimizu-Technology/quizcards-api/internal/logger"
	"github.com/Shimizu-Technology/quizcards-api/internal/middleware"
	"github.com/Shimizu-Technology/quizcards-api/internal/quiz"
	"github.com/Shimizu-Technology/quizcards-api/internal/router"
	"github.com/Shimizu-Technology/quizcards-api/internal/services/pdf"
	"github.com/Shimizu-Technology/quizcards-api/internal/services/questions"
	"github.com/Shimizu-Technology/quizcards-api/internal/services/summary"
	"github.com/Shimizu-Technology/quizcards-api/internal/services/worker"
)

// Version is set at build time via -ldflags.
var Version = "dev"

const (
	shutdownTimeout = 30 * time.Second
	sweepInterval   = time.Minute
	bucketSweep     = 10 * time.Minute
)

func main() {
	// Step 1: Load Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.GinMode, cfg.LogLevel)
	defer log.Sync()

	log.Info("Quiz Cards API starting",
		zap.String("version", Version),
		zap.String("port", cfg.Port),
		zap.Int("workers", cfg.WorkerCount),
		zap.String("gin_mode", cfg.GinMode),
		zap.String("question_provider", cfg.QuestionProvider),
	)

	if err := run(cfg, log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
	log.Info("server stopped")
}

func run(cfg *config.Config, log *zap.Logger) error {
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Step 2: Create Services
	summarizer := summary.New(cfg.CohereAPIKey, cfg.CohereBaseURL, cfg.SummaryLength, log)
	if !summarizer.IsConfigured() {
		log.Warn("COHERE_API_KEY not set; quiz generation will fail at the summary step")
	}
	pipeline := quiz.NewPipeline(pdf.NewExtractor(), summarizer, newQuestionGenerator(cfg, log), log)

	registry := quiz.NewRegistry(cfg.SessionTTL, log)
	pool := worker.NewPool(cfg.WorkerCount, cfg.JobQueueSize, pipeline, log)

	h := handlers.NewHandler(registry, pool, handlers.Options{
		Version:          Version,
		JWTSecret:        cfg.JWTSecret,
		ShowLoadingStage: cfg.ShowLoadingStage,
		MaxUploadBytes:   cfg.MaxUploadBytes,
	}, log)

	// Step 3: Optional deck store
	if cfg.DatabaseURL != "" {
		db, err := database.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.RunMigrations("migrations", log); err != nil {
			return err
		}
		pipeline.SetDeckStore(db)
		h.Decks = db
		log.Info("deck store enabled")
	} else {
		log.Warn("DATABASE_URL not set; decks will not be stored")
	}

	// Step 4: Optional deck cache
	if cfg.RedisAddress != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddress, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer client.Close()

		deckCache := cache.NewDeckCache(client, cfg.CacheTTL)
		pipeline.SetCache(deckCache)
		h.Cache = deckCache
		log.Info("deck cache enabled", zap.String("redis", cfg.RedisAddress), zap.Duration("ttl", cfg.CacheTTL))
	}

	// Step 5: Start workers and the HTTP server
	pool.Start()

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)
	r := router.Setup(h, router.Config{
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimiter:    rateLimiter,
	}, log)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  60 * time.Second, // uploads up to MAX_UPLOAD_MB
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		registry.Run(gctx, sweepInterval)
		return nil
	})
	g.Go(func() error {
		rateLimiter.Cleanup(gctx, bucketSweep)
		return nil
	})
	g.Go(func() error {
		log.Info("server listening", zap.String("addr", "http://localhost:"+cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Step 6: Graceful Shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		pool.Stop()
		return err
	})

	return g.Wait()
}

func newQuestionGenerator(cfg *config.Config, log *zap.Logger) quiz.QuestionGenerator {
	if cfg.QuestionProvider == config.ProviderOpenAI {
		if cfg.OpenAIAPIKey == "" {
			log.Warn("OPENAI_API_KEY not set; question generation will fail")
		}
		return questions.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.QuestionModel, cfg.QuestionCount, log)
	}

	if cfg.CohereAPIKey == "" {
		log.Warn("COHERE_API_KEY not set; question generation will fail")
	}
	return questions.NewCohere(cfg.CohereAPIKey, cfg.CohereBaseURL, cfg.QuestionModel, cfg.QuestionCount, log)
}
