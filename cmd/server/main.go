package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lounge-chat/lounge-server/internal/contact"
	"github.com/lounge-chat/lounge-server/internal/lounge"
	"github.com/lounge-chat/lounge-server/internal/redact"
	"github.com/lounge-chat/lounge-server/internal/server"
)

const shutdownTimeout = 10 * time.Second

var rootCmd = &cobra.Command{
	Use:   "lounge-server",
	Short: "Real-time chat room and contact-form backend",
	RunE:  run,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(_ *cobra.Command, _ []string) error {
	if os.Getenv("APP_ENV") != "production" {
		// Missing .env is fine; the environment may be set directly.
		_ = godotenv.Load()
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	logger := log.Logger

	cfg := server.NewConfigFromEnv()
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET_KEY must be set")
	}
	server.SetConfig(cfg)

	var redactor *redact.Cipher
	if cfg.CipherKey != "" {
		var err error
		redactor, err = redact.New(cfg.CipherKey, cfg.CipherIV)
		if err != nil {
			return fmt.Errorf("configure redaction: %w", err)
		}
	}

	loungeHub := server.NewHub(logger.With().Str("namespace", "the-lounge").Logger())
	tokens := lounge.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	room := lounge.NewRoom()
	loungeHandler := lounge.NewHandler(
		tokens, room, loungeHub, cfg.GracePeriod, redactor,
		logger.With().Str("namespace", "the-lounge").Logger(),
	)
	defer loungeHandler.Close()

	mainHub := server.NewHub(logger.With().Str("namespace", "main").Logger())
	mailer := contact.NewMailjetMailer(
		cfg.Mailjet.APIKey, cfg.Mailjet.APISecret,
		cfg.Mailjet.OwnerName, cfg.Mailjet.OwnerEmail,
	)
	contactHandler := contact.NewHandler(mailer, redactor, logger.With().Str("namespace", "main").Logger())

	go loungeHub.Run()
	go mainHub.Run()

	mux := server.SetupRoutes(
		server.NewEndpoint(loungeHub, loungeHandler, logger),
		server.NewEndpoint(mainHub, contactHandler, logger),
	)
	httpServer := server.CreateServer(cfg.Port, mux)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.StartServer(httpServer, cfg.TLS, logger)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	if err := server.ShutdownServer(httpServer, shutdownTimeout, logger); err != nil {
		logger.Error().Err(err).Msg("HTTP shutdown incomplete")
	}
	if err := loungeHub.Shutdown(shutdownTimeout); err != nil {
		logger.Error().Err(err).Msg("lounge hub shutdown incomplete")
	}
	if err := mainHub.Shutdown(shutdownTimeout); err != nil {
		logger.Error().Err(err).Msg("main hub shutdown incomplete")
	}

	return nil
}
