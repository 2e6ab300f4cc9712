// Package app wires configuration, storage, publishing, the scheduler and
// the HTTP gateway into one runnable unit.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/telepress/telepress/internal/config"
	"github.com/telepress/telepress/internal/cron"
	"github.com/telepress/telepress/internal/gateway"
	"github.com/telepress/telepress/internal/media"
	"github.com/telepress/telepress/internal/publish"
	"github.com/telepress/telepress/internal/store"
	"github.com/telepress/telepress/internal/tracing"
)

// App holds the assembled components of one process.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	store     *store.Store
	gateway   *gateway.Gateway
	scheduler *cron.Scheduler

	shutdownTracing func(context.Context) error
}

// NewLogger builds the process logger for the configured level.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// New assembles an App from validated configuration.
func New(ctx context.Context, cfg *config.Config, version string, logger *slog.Logger) (*App, error) {
	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing, version, logger)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Storage.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("app: opening store: %w", err)
	}

	ms, err := media.NewStore(cfg.Media.Dir)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("app: opening media store: %w", err)
	}

	pub := publish.New(publish.Defaults{
		Token:  cfg.Telegram.Token,
		ChatID: cfg.Telegram.ChatID,
	}, cfg.Telegram.APIURL, logger)

	scheduler := cron.NewScheduler(logger)
	if cfg.Trash.Enabled {
		job := &cron.TrashPurgeJob{
			Store:        st,
			Retention:    cfg.Trash.Retention,
			Logger:       logger,
			ScheduleExpr: cfg.Trash.Schedule,
		}
		if err := scheduler.RegisterJob(job); err != nil {
			_ = st.Close()
			return nil, err
		}
	}

	return &App{
		cfg:             cfg,
		logger:          logger,
		store:           st,
		gateway:         gateway.New(cfg, st, ms, pub, logger),
		scheduler:       scheduler,
		shutdownTracing: shutdownTracing,
	}, nil
}

// Run starts every component and blocks until SIGINT or SIGTERM, then shuts
// down in reverse start order.
func (a *App) Run() error {
	if err := a.scheduler.Start(); err != nil {
		return err
	}
	if err := a.gateway.Start(); err != nil {
		_ = a.scheduler.Stop(context.Background())
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	a.logger.Info("shutting down", "signal", s.String())

	return a.Shutdown()
}

// Shutdown stops components and releases resources. Safe to call once.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var firstErr error
	if err := a.gateway.Stop(ctx); err != nil {
		firstErr = err
	}
	if err := a.scheduler.Stop(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := a.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
