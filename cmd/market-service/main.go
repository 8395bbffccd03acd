package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"skupply-market-service/internal/adapters/db"
	"skupply-market-service/internal/adapters/httpapi"
	"skupply-market-service/internal/adapters/identity"
	"skupply-market-service/internal/adapters/mailer"
	"skupply-market-service/internal/adapters/notifier"
	"skupply-market-service/internal/adapters/redis"
	"skupply-market-service/internal/adapters/sweeper"
	"skupply-market-service/internal/adapters/ws"
	"skupply-market-service/internal/app"
	"skupply-market-service/internal/config"
)

func main() {

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	initLogging(cfg)

	log.Info().Msg("Starting Skupply Market Service...")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection
	dbConn, err := db.NewConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbConn.Close()

	log.Info().Msg("Database connection established")

	listingRepo := db.NewListingRepository(dbConn)

	// Create Redis client
	redisClient := redis.NewClient(cfg)
	if err := redis.PingRedis(redisClient); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	log.Info().Msg("Redis connection established")

	challengeStore := redis.NewChallengeStore(redis.ChallengeStoreParams{
		RedisClient: redisClient,
		Logger:      log.Logger,
	})

	redisNotifier := notifier.NewRedisNotifier(notifier.RedisNotifierParams{
		RedisClient: redisClient,
		Logger:      log.Logger,
	})

	smtpSender := mailer.NewSMTPSender(mailer.SMTPSenderParams{
		Config: cfg,
		Logger: log.Logger,
	})

	identityProvider := identity.NewJWTVerifier(identity.JWTVerifierParams{
		Secret: cfg.Auth.JWTSecret,
		Logger: log.Logger,
	})

	// Create business services
	verificationService := app.NewVerificationService(app.VerificationServiceParams{
		Store:  challengeStore,
		Mailer: smtpSender,
		Logger: log.Logger,
	})
	offerService := app.NewOfferService(app.OfferServiceParams{
		Listings: listingRepo,
		Verifier: verificationService,
		Notifier: redisNotifier,
		Logger:   log.Logger,
	})

	log.Info().Msg("Business services initialized")

	// Start the expired-challenge sweeper
	challengeSweeper := sweeper.NewChallengeSweeper(sweeper.ChallengeSweeperParams{
		Store:  challengeStore,
		Logger: log.Logger,
	})
	challengeSweeper.Start()

	wsHandler := ws.NewHandler(ws.WsHandlerParams{
		Config:   cfg,
		Notifier: redisNotifier,
		Identity: identityProvider,
		Logger:   log.Logger,
	})

	httpServer := httpapi.NewServer(httpapi.ServerParams{
		Config:       cfg,
		Offers:       offerService,
		Verification: verificationService,
		Identity:     identityProvider,
		WsHandler:    wsHandler,
		Logger:       log.Logger,
	})

	log.Info().Msg("HTTP server initialized")

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Error().Err(err).Msg("Failed to start HTTP server")
			cancel()
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case <-ctx.Done():
		log.Info().Msg("Context cancelled")
	}

	// Graceful shutdown
	log.Info().Msg("Starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	challengeSweeper.Stop()
	log.Info().Msg("Challenge sweeper stopped")

	wsHandler.Stop()
	log.Info().Msg("Notification streams closed")

	if err := httpServer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping HTTP server")
	}

	log.Info().Msg("Graceful shutdown completed")
}

func initLogging(cfg *config.Config) {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Set log format
	if cfg.Logging.Format == "json" {
		// JSON format (default)
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		// Console format for development
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		log.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global logger
	zerolog.DefaultContextLogger = &log.Logger
}
