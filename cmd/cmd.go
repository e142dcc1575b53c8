package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voicemail-backend/internal/config"
	"voicemail-backend/internal/handlers"
	"voicemail-backend/internal/middleware"
	"voicemail-backend/internal/repository"
	"voicemail-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	if err := repository.InitSchema(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize schema")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	friendRepo := repository.NewFriendshipRepository(db)
	letterRepo := repository.NewLetterRepository(db)

	// Initialize services
	storage, err := services.NewStorage(
		context.Background(),
		cfg.AWS.Region,
		cfg.AWS.S3Bucket,
		cfg.AWS.AccessKey,
		cfg.AWS.SecretKey,
		cfg.AWS.Endpoint,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create artifact storage")
	}

	userService := services.NewUserService(userRepo, cfg.JWT.Secret)
	friendshipService := services.NewFriendshipService(friendRepo, userRepo)
	letterService := services.NewLetterService(letterRepo, userRepo, db, storage)
	mailer := services.NewEmailService(cfg.Email.APIKey, cfg.Email.From)
	digestService := services.NewDigestService(userRepo, letterRepo, mailer, cfg.Digest.InboxURL)
	transcriber := services.NewTranscriber(cfg.Transcription.Endpoint, cfg.Transcription.APIKey)
	wsHub := services.NewWSHub(userRepo)

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService)
	friendHandler := handlers.NewFriendHandler(friendshipService, wsHub)
	letterHandler := handlers.NewLetterHandler(letterService, userService, wsHub)
	digestHandler := handlers.NewDigestHandler(digestService)
	transcribeHandler := handlers.NewTranscribeHandler(transcriber)
	wsHandler := handlers.NewWebSocketHandler(wsHub, userService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/users", userHandler.CreateUser)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(userService))
			r.Get("/users/me", userHandler.GetMe)
			r.Patch("/users/me", userHandler.UpdateMe)

			r.Get("/friends", friendHandler.ListFriends)
			r.Get("/friends/search", friendHandler.Search)
			r.Post("/friends/requests", friendHandler.SendRequest)
			r.Post("/friends/requests/{userID}/accept", friendHandler.AcceptRequest)
			r.Post("/friends/requests/{userID}/decline", friendHandler.DeclineRequest)
			r.Delete("/friends/{userID}", friendHandler.Unfriend)

			r.Post("/letters", letterHandler.SendLetter)
			r.Get("/letters", letterHandler.GetInbox)
			r.Post("/letters/{letterID}/read", letterHandler.MarkRead)
			r.Delete("/letters/{letterID}", letterHandler.DeleteLetter)

			r.Post("/transcribe", transcribeHandler.Transcribe)
		})
	})

	// Operator trigger for the digest, in addition to the hourly ticker
	r.Post("/internal/digest/run", digestHandler.Run)

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Digest scheduler: one run per hour
	digestCtx, stopDigest := context.WithCancel(context.Background())
	defer stopDigest()
	if cfg.Digest.Enabled {
		go runDigestLoop(digestCtx, digestService)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	stopDigest()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// runDigestLoop triggers the digest once per hour until ctx is cancelled
func runDigestLoop(ctx context.Context, digestService *services.DigestService) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	log.Info().Msg("Digest scheduler started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Digest scheduler stopped")
			return
		case <-ticker.C:
			if err := digestService.Run(ctx); err != nil {
				log.Error().Err(err).Msg("Digest run failed")
			}
		}
	}
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
