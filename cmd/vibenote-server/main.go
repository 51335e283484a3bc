// Package main provides the vibenote-server binary: the HTTP API, the
// background insight jobs and a one-shot backfill command.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/mrwolf/vibenote-server/internal/analyst"
	"github.com/mrwolf/vibenote-server/internal/api"
	"github.com/mrwolf/vibenote-server/internal/auth"
	"github.com/mrwolf/vibenote-server/internal/config"
	"github.com/mrwolf/vibenote-server/internal/core"
	"github.com/mrwolf/vibenote-server/internal/db"
	"github.com/mrwolf/vibenote-server/internal/events"
	"github.com/mrwolf/vibenote-server/internal/export"
	"github.com/mrwolf/vibenote-server/internal/gamification"
	"github.com/mrwolf/vibenote-server/internal/llm"
	"github.com/mrwolf/vibenote-server/internal/metrics"
	"github.com/mrwolf/vibenote-server/internal/scheduler"
)

const (
	Version = "0.1.0"
	appName = "vibenote-server"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	logLevel   string
}

func rootCmd() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:          appName,
		Short:        "Mental-wellness journal and mood tracking backend",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), flags)
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides VIBE_LOG_LEVEL")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API and scheduled jobs",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context(), flags)
			},
		},
		backfillCmd(&flags),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("%s version %s\n", appName, Version)
			},
		},
	)

	return cmd
}

func backfillCmd(flags *globalFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Generate insights for journal entries that have none",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(flags)
			if err != nil {
				return err
			}
			defer a.close()

			n, err := a.service.BackfillInsights(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Printf("processed %d entries\n", n)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of entries to process")
	return cmd
}

// app is the wired process
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *db.DB
	metrics *metrics.Metrics
	client  *llm.Client
	hub     *events.Hub
	service *core.Service
	clock   clockwork.Clock
}

func setup(flags *globalFlags) (*app, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	store, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		metrics: metrics.New(),
		clock:   clockwork.NewRealClock(),
	}

	// a nil *llm.Client must not become a non-nil Completer
	var completer analyst.Completer
	if cfg.LLMEnabled() {
		a.client = llm.NewClient(llm.Config{
			BaseURL: cfg.LLMURL,
			APIKey:  cfg.LLMAPIKey,
			Model:   cfg.LLMModel,
			Timeout: cfg.LLMTimeout,
		})
		completer = a.client
		logger.Info("completion API configured", "url", cfg.LLMURL, "model", cfg.LLMModel)
	} else {
		logger.Warn("no completion API key configured, all analysis runs locally")
	}

	analyzer := analyst.New(completer, analyst.NewFallbackNotice(logger), logger, a.metrics)
	a.hub = events.NewHub(logger, a.metrics, cfg.AllowedOrigins)
	a.service = core.New(core.Options{
		Store:    store,
		Analyzer: analyzer,
		Tracker:  gamification.NewTracker(a.clock, cfg.Location()),
		Exporter: export.NewWriter(cfg.ExportPath),
		Events:   a.hub,
		Metrics:  a.metrics,
		Clock:    a.clock,
		Logger:   logger,
	})
	return a, nil
}

func (a *app) close() {
	a.service.Close()
	if err := a.store.Close(); err != nil {
		a.logger.Error("database close error", "error", err)
	}
}

func serve(ctx context.Context, flags globalFlags) error {
	a, err := setup(&flags)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go a.hub.Run(ctx)

	var health scheduler.HealthChecker
	if a.client != nil {
		health = a.client
	}
	sched, err := scheduler.New(a.service, health, scheduler.Config{
		Location:         a.cfg.Location(),
		BackfillInterval: a.cfg.BackfillInterval,
		Clock:            a.clock,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	router := api.NewRouter(api.Deps{
		Service:   a.service,
		Store:     a.store,
		Tokens:    auth.NewTokenIssuer(a.cfg.JWTSecret, a.cfg.TokenTTL, a.clock),
		Hub:       a.hub,
		Metrics:   a.metrics,
		Health:    sched,
		RateLimit: a.cfg.RateLimit,
		Clock:     a.clock,
		Logger:    a.logger,
		Version:   Version,
	})

	server := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", server.Addr, "version", Version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutting down gracefully")
	case serveErr = <-errCh:
		a.logger.Error("server error", "error", serveErr)
	}

	// Give ongoing requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP server shutdown error", "error", err)
	}
	if err := sched.Stop(); err != nil {
		a.logger.Error("scheduler shutdown error", "error", err)
	}

	a.logger.Info("shutdown complete")
	return serveErr
}
