package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/candorapp/session-server-go/internal/config"
	"github.com/candorapp/session-server-go/internal/database"
	"github.com/candorapp/session-server-go/internal/generator"
	"github.com/candorapp/session-server-go/internal/handler"
	"github.com/candorapp/session-server-go/internal/jobs"
	"github.com/candorapp/session-server-go/internal/middleware"
	"github.com/candorapp/session-server-go/internal/redis"
	"github.com/candorapp/session-server-go/internal/repository"
	"github.com/candorapp/session-server-go/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	userRepo := repository.NewUserRepository(db.DB)
	soloPrepRepo := repository.NewSoloPrepRepository(db.DB)
	jointRepo := repository.NewJointUnpackRepository(db.DB)

	genClient := generator.NewHTTPClient(cfg.GeneratorBaseURL, cfg.GeneratorAPIKey, config.GeneratorRequestTimeout)
	promptCache := service.NewPromptCache(redisClient, config.PromptCacheTTL)

	entitlementService := service.NewEntitlementService(userRepo)
	soloPrepService := service.NewSoloPrepService(soloPrepRepo, entitlementService, genClient, promptCache)
	conversionService := service.NewConversionService(db, jointRepo, entitlementService, cfg.InviteTTL())
	guestService := service.NewGuestService(jointRepo, soloPrepRepo, genClient, promptCache)
	revealService := service.NewRevealService(jointRepo, soloPrepRepo, genClient)

	authMiddleware := middleware.NewAuthMiddleware(userRepo)
	guestAccessLimiter := middleware.NewGuestAccessLimiter(redisClient.Client)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)

	soloPrepHandler := handler.NewSoloPrepHandler(soloPrepService)
	jointHandler := handler.NewJointHandler(conversionService, revealService, cfg)
	guestHandler := handler.NewGuestHandler(guestService, guestAccessLimiter.Handler)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Use(authMiddleware.Handler)
		r.Mount("/", soloPrepHandler.Routes())
	})

	r.Route("/v1/joint", func(r chi.Router) {
		r.Use(authMiddleware.Handler)
		r.Mount("/", jointHandler.Routes())
	})

	r.Route("/guest", func(r chi.Router) {
		r.Mount("/", guestHandler.Routes())
	})

	cleanupJob := jobs.NewCleanupJob(jointRepo, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
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
