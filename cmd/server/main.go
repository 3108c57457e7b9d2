package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"smartlearning-backend/internal/cache"
	"smartlearning-backend/internal/config"
	"smartlearning-backend/internal/database"
	"smartlearning-backend/internal/handlers"
	"smartlearning-backend/internal/logger"
	"smartlearning-backend/internal/metrics"
	"smartlearning-backend/internal/middleware"
	"smartlearning-backend/internal/repository"
	"smartlearning-backend/internal/router"
	"smartlearning-backend/internal/services"
	"smartlearning-backend/internal/websocket"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode, cfg.LogFile)
	if err != nil {
		panic(fmt.Sprintf("failed to initialise logger: %v", err))
	}
	defer log.Sync()
	log.Info("starting smart learning backend", "env", cfg.Env)

	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("PostgreSQL connection failed", "error", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, cfg.MigrationsDir, log); err != nil {
		log.Fatal("database migration failed", "error", err)
	}
	log.Info("PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal("Redis connection failed", "error", err)
	}
	defer redisClients.Close()
	log.Info("Redis connected")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	videoRepo := repository.NewVideoRepo(pool)
	quizRepo := repository.NewQuizRepo(pool)

	// ──── Step 4: Transcript acquisition ────
	transcriptFetcher, err := services.NewTranscriptFetcher(ctx, services.TranscriptFetcherOptions{
		YouTubeAPIKey:   cfg.YouTubeAPIKey,
		HasAPIKey:       cfg.HasYouTubeAPIKey(),
		LibraryFallback: cfg.TranscriptLibraryFallback,
		Cache:           cache.NewTranscriptCache(redisClients.Cache, cfg.TranscriptCacheTTL, log),
	}, log)
	if err != nil {
		log.Fatal("transcript fetcher initialization failed", "error", err)
	}
	if !cfg.HasYouTubeAPIKey() {
		log.Warn("YOUTUBE_API_KEY not set; only publicly embedded captions can be fetched")
	}

	// ──── Step 5: Content generator ────
	generator, closeGenerator := newGenerator(ctx, cfg, log)
	defer closeGenerator()

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret, cfg.JWTExpiry)
	progress := services.NewRedisProgressPublisher(redisClients.Cache, log)

	authService := services.NewAuthService(userRepo, videoRepo, jwtAuth, log)
	quizService := services.NewQuizService(quizRepo, log)
	statsService := services.NewStatsService(videoRepo, quizRepo)
	learningService := services.NewLearningService(
		videoRepo,
		quizRepo,
		transcriptFetcher,
		services.NewVideoMetadataService(),
		generator,
		services.NewFileExtractService(),
		progress,
		log,
	)

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth, cfg.AllowedOrigins, log)

	// ──── Step 7: Start HTTP Server ────
	r, limiters := router.New(
		jwtAuth,
		router.Handlers{
			Auth:  handlers.NewAuthHandler(authService, log),
			Video: handlers.NewVideoHandler(learningService, log),
			Quiz:  handlers.NewQuizHandler(quizService, log),
			User:  handlers.NewUserHandler(statsService, authService, log),
		},
		wsHub,
		router.Options{AllowedOrigins: cfg.AllowedOrigins, RateLimitPerMin: cfg.RateLimitPerMin},
		log,
	)
	for _, l := range limiters {
		go l.Cleanup(ctx.Done())
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// generation of three artifacts can take well over a minute
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		wsHub.Shutdown()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	}()

	log.Info("server ready", "addr", server.Addr, "api", "/api/v1", "ws", "/api/v1/ws")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server error", "error", err)
	}
}

// newGenerator picks the content generator once at start-up.
func newGenerator(ctx context.Context, cfg *config.Config, log *logger.Logger) (services.ContentGenerator, func()) {
	switch {
	case cfg.UseMockAI:
		log.Warn("USE_MOCK_AI is set; study content is generated offline from the transcript")
		return services.NewMockGenerator(), func() {}
	case config.UsableAPIKey(cfg.GeminiAPIKey):
		gemini, err := services.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiConcurrentReqs, log)
		if err != nil {
			log.Fatal("Gemini client initialization failed", "error", err)
		}
		log.Info("Gemini client initialized", "model", cfg.GeminiModel)
		return gemini, gemini.Close
	default:
		log.Warn("GEMINI_API_KEY not set and USE_MOCK_AI disabled; processing requests will be rejected")
		return services.NewUnavailableGenerator(), func() {}
	}
}
