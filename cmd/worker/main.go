package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hostedid/accounts/internal/config"
	"github.com/hostedid/accounts/internal/database"
	"github.com/hostedid/accounts/internal/email"
	"github.com/hostedid/accounts/internal/logger"
	"github.com/hostedid/accounts/internal/queue"
	"github.com/hostedid/accounts/internal/service"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "worker",
	Short: "Background job worker for accounts",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Consume jobs until interrupted",
	RunE:  runWorker,
}

var deadCmd = &cobra.Command{
	Use:   "dead-letters",
	Short: "List jobs that exhausted their attempts",
	RunE:  runDeadLetters,
}

var welcomeCmd = &cobra.Command{
	Use:   "send-welcome [email]",
	Short: "Queue a welcome email for an address",
	Args:  cobra.ExactArgs(1),
	RunE:  runSendWelcome,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(deadCmd)
	rootCmd.AddCommand(welcomeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type app struct {
	cfg     *config.Config
	log     *logger.Logger
	rdb     *database.Redis
	jobs    *queue.RedisQueue
	welcome *service.WelcomeEmailService
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	rdb, err := database.NewRedis(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	sender, err := email.NewSender(ctx, cfg.Email, log)
	if err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to initialize email sender: %w", err)
	}

	return &app{
		cfg:  cfg,
		log:  log,
		rdb:  rdb,
		jobs: queue.NewRedisQueue(rdb, cfg.Queue.Name),
		welcome: service.NewWelcomeEmailService(
			email.NewRenderer(cfg.Templates.Root),
			sender,
			service.WelcomeConfig{FromAddress: cfg.Email.DefaultFrom},
			log,
		),
	}, nil
}

func runWorker(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.rdb.Close()

	registry := queue.NewRegistry()
	a.welcome.Register(registry)

	a.log.Info().
		Str("queue", a.cfg.Queue.Name).
		Int("workers", a.cfg.Queue.Workers).
		Str("email_provider", a.cfg.Email.Provider).
		Msg("starting worker")

	if err := queue.NewWorker(a.jobs, registry, a.cfg.Queue, a.log).Run(ctx); err != nil {
		return err
	}

	a.log.Info().Msg("worker stopped")
	return nil
}

func runDeadLetters(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer a.rdb.Close()

	dead, err := a.jobs.DeadLetters(cmd.Context())
	if err != nil {
		return err
	}
	if len(dead) == 0 {
		fmt.Println("No dead-lettered jobs")
		return nil
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(dead)
}

func runSendWelcome(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer a.rdb.Close()

	if err := a.welcome.Enqueue(cmd.Context(), a.jobs, args[0]); err != nil {
		return fmt.Errorf("failed to queue welcome email: %w", err)
	}
	fmt.Printf("Queued welcome email for %s on %q\n", args[0], a.cfg.Queue.Name)
	return nil
}
