// Package gateway provides the HTTP server: note and folder CRUD, file
// uploads, publishing, and monitoring endpoints. It binds to loopback by
// default.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/telepress/telepress/internal/config"
	"github.com/telepress/telepress/internal/media"
	"github.com/telepress/telepress/internal/publish"
	"github.com/telepress/telepress/internal/store"
)

// Gateway is the HTTP front of the application.
type Gateway struct {
	cfg       config.ServerConfig
	telegram  config.TelegramConfig
	logger    *slog.Logger
	store     *store.Store
	media     *media.Store
	publisher *publish.Publisher
	metrics   *Metrics
	server    *http.Server
	startedAt time.Time
}

// New assembles a gateway over its collaborators.
func New(cfg *config.Config, st *store.Store, ms *media.Store, pub *publish.Publisher, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		cfg:       cfg.Server,
		telegram:  cfg.Telegram,
		logger:    logger.With("component", "gateway"),
		store:     st,
		media:     ms,
		publisher: pub,
		metrics:   NewMetrics(),
	}
}

// Start binds the listener and serves in a background goroutine.
func (g *Gateway) Start() error {
	g.startedAt = time.Now()

	g.server = &http.Server{
		Addr:         g.cfg.Bind,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.cfg.ReadTimeout,
		WriteTimeout: g.cfg.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.cfg.Bind)
	if err != nil {
		return errors.New("gateway: listen failed: " + err.Error())
	}

	go func() {
		g.logger.Info("gateway listening", "addr", g.cfg.Bind)
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully with the configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.cfg.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}
