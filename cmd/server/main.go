package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/onhighmng/melhor-saude-backend/internal/config"
	"github.com/onhighmng/melhor-saude-backend/internal/db"
	httpapi "github.com/onhighmng/melhor-saude-backend/internal/http"
	"github.com/onhighmng/melhor-saude-backend/internal/matching"
	"github.com/onhighmng/melhor-saude-backend/internal/notify"
	"github.com/onhighmng/melhor-saude-backend/internal/reaper"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "melhor-saude-backend").Logger()

	ctx := context.Background()
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	var notifier matching.Notifier
	if cfg.AMQPURL == "" {
		notifier = notify.LogNotifier{Logger: logger}
		logger.Info().Msg("using log notifier")
	} else {
		amqpNotifier, err := notify.NewAMQP(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect amqp")
		}
		defer amqpNotifier.Close()
		notifier = amqpNotifier
	}

	assigner := &matching.Service{
		Providers: store,
		Cases:     store,
		Audit:     store,
		Notifier:  notifier,
		Logger:    logger,
	}

	sweeper := &reaper.Reaper{
		Store:         store,
		Assigner:      assigner,
		AcceptTimeout: cfg.AcceptTimeout,
		Logger:        logger,
	}
	if err := sweeper.Start(cfg.SweepInterval); err != nil {
		logger.Fatal().Err(err).Msg("failed to start reaper")
	}
	defer sweeper.Stop()

	router := httpapi.Router(cfg, store, assigner, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
