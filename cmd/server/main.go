package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hostedid/accounts/internal/config"
	"github.com/hostedid/accounts/internal/database"
	"github.com/hostedid/accounts/internal/email"
	"github.com/hostedid/accounts/internal/handler"
	"github.com/hostedid/accounts/internal/logger"
	"github.com/hostedid/accounts/internal/middleware"
	"github.com/hostedid/accounts/internal/queue"
	"github.com/hostedid/accounts/internal/repository"
	"github.com/hostedid/accounts/internal/router"
	"github.com/hostedid/accounts/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Str("version", handler.Version).Msg("starting accounts server")

	// Connect to PostgreSQL
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("connected to PostgreSQL")

	// Connect to Redis
	rdb, err := database.NewRedis(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("connected to Redis")

	// Email collaborators. The server only queues mail; the sender is built so
	// misconfiguration fails at startup rather than in the worker.
	sender, err := email.NewSender(context.Background(), cfg.Email, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize email sender")
	}
	welcomeSvc := service.NewWelcomeEmailService(
		email.NewRenderer(cfg.Templates.Root),
		sender,
		service.WelcomeConfig{FromAddress: cfg.Email.DefaultFrom},
		log,
	)

	jobs := queue.NewRedisQueue(rdb, cfg.Queue.Name)

	// Initialize services
	userSvc := service.NewUserService(repository.NewUserRepository(db), welcomeSvc, jobs, log)

	h := handler.New(db, rdb, log, cfg, userSvc)
	mw := middleware.New(rdb, log, cfg)
	r := router.New(h, mw)

	// Create HTTP server
	addr := cfg.Server.Addr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
