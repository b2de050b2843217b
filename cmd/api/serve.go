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

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/mindpal/backend/internal/handler"
	"github.com/zhouzirui/mindpal/backend/internal/logging"
	"github.com/zhouzirui/mindpal/backend/internal/metrics"
	"github.com/zhouzirui/mindpal/backend/internal/model/resource"
	"github.com/zhouzirui/mindpal/backend/internal/service/ai"
	"github.com/zhouzirui/mindpal/backend/internal/service/companion"
	"github.com/zhouzirui/mindpal/backend/internal/service/mood"
	"github.com/zhouzirui/mindpal/backend/internal/service/notify"
	"github.com/zhouzirui/mindpal/backend/internal/service/reminder"
	"github.com/zhouzirui/mindpal/backend/internal/service/tracker"
	"github.com/zhouzirui/mindpal/backend/internal/session"
	"github.com/zhouzirui/mindpal/backend/internal/storage"
)

const recentHistory = 10

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, usage tracker and reminder scheduler",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.App.Location()
	if err != nil {
		return err
	}
	recorder := metrics.New(cfg.Metrics.Enabled)

	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close store")
		}
	}()

	state := session.New(store, session.Options{
		Location: loc,
		Logger:   logger,
		OnWarning: func(slot storage.Slot, err error) {
			recorder.IncStorageWarnings(string(slot))
		},
	})
	if err := state.Load(ctx); err != nil {
		logger.Warn().Err(err).Msg("some slots could not be restored, defaults kept")
	}

	provider, err := ai.New(ctx, cfg.AI, state.RecentMessages(recentHistory), logger)
	if err != nil {
		logger.Warn().Err(err).Str("provider", cfg.AI.Provider).Msg("failed to initialize AI provider, continuing without it")
		provider = ai.Unconfigured{}
	}
	logger.Info().Str("provider", provider.Name()).Str("model", cfg.AI.ModelName()).Msg("AI provider ready")

	trigger := mood.NewTrigger(provider, state, mood.Config{
		HistoryLimit: cfg.Mood.HistoryLimit,
		Timeout:      cfg.Mood.Timeout,
	}, logger, recorder)

	orch := companion.New(state, provider, trigger, companion.Config{
		MoodEvery: cfg.Mood.Every,
		Timeout:   cfg.AI.Timeout,
	}, logger, recorder)
	defer orch.Close()

	hub := notify.NewHub(logger)
	scheduler := reminder.NewScheduler(state, hub, reminder.Config{
		PollInterval: cfg.Reminder.PollInterval,
		Title:        cfg.Reminder.Title,
		Body:         cfg.Reminder.Body,
		Location:     loc,
	}, logger, recorder)
	usage := tracker.New(state, hub, cfg.Tracker.Interval, logger)

	router := handler.NewRouter(handler.Deps{
		State:     state,
		Companion: orch,
		Resources: resource.NewMemoryStore(resource.Seed()),
		Hub:       hub,
		Metrics:   recorder,
		Logger:    logging.Component(logger, "http"),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return usage.Run(gctx) })
	g.Go(func() error { return scheduler.Run(gctx) })
	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Msg("MindPal backend listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info().Msg("shutdown complete")
	return nil
}
