// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/starford/letterbox/internal/countdown"
	"github.com/starford/letterbox/internal/effects"
	"github.com/starford/letterbox/internal/mcpserver"
	"github.com/starford/letterbox/internal/render"
	"github.com/starford/letterbox/internal/sse"
	"github.com/starford/letterbox/internal/storage"
	"github.com/starford/letterbox/internal/ticker"
	"github.com/starford/letterbox/internal/web"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// Run starts the web application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(os.Stdout, cfg.App.LogLevel)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("storage_path", cfg.Storage.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	base, repo, closeStore, err := app.setup(logger)
	if err != nil {
		return err
	}
	defer closeStore()

	view, err := render.New()
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	spawner := effects.NewSpawner(cfg.Confetti.Colors, cfg.Confetti.Enabled, nil)
	target := cfg.Countdown.Target()

	site := web.Site{
		Title:    cfg.App.Title,
		Letters:  repo,
		View:     view,
		Events:   broker,
		Confetti: spawner,
		Target:   target,
		Track:    cfg.Player.Track(),
		Cards:    RenderCards(cfg.Cards),
	}

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           newRouter(site, base, cfg.Auth),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Periodic pushes to the page, stopped together on the way out.
	var timers ticker.Group
	defer timers.Stop()
	timers.Add(ticker.Start(gCtx, cfg.Countdown.Refresh(), false, func(now time.Time) {
		broker.Publish(sse.Event{Type: sse.TypeCountdownTick, Data: countdown.Until(now, target)})
	}))
	timers.Add(ticker.Start(gCtx, cfg.Confetti.Interval(), false, func(time.Time) {
		if p, ok := spawner.Spawn(); ok {
			broker.Publish(sse.Event{Type: sse.TypeConfettiSpawn, Data: p})
		}
	}))

	// Reload letters written by another process.
	if fsStore, ok := base.(*storage.FS); ok && cfg.Storage.Watch {
		g.Go(func() error {
			err := storage.Watch(gCtx, fsStore, cfg.Letters.StorageKey, logger, func() {
				if err := repo.Reload(); err != nil {
					logger.Error("reload letters failed", slog.String("error", err.Error()))
					return
				}
				broker.PublishLetterEvent("reloaded", "", repo.Count())
			})
			if err != nil {
				logger.Warn("store watcher unavailable", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Close the event streams first so Shutdown does not wait on them.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown ends the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// newRouter builds the root router: request middleware, health checks and
// the site routes.
func newRouter(site web.Site, store storage.Store, auth AuthConfig) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := store.Keys(); err != nil {
			slog.Error("readiness check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/", web.NewRouter(site, auth.AuthEnabled(), auth.Token))
	return r
}

// RunMCP serves the letter tools over stdio. Logs go to stderr because
// stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(os.Stderr, cfg.App.LogLevel)
	slog.SetDefault(logger)

	_, repo, closeStore, err := app.setup(logger)
	if err != nil {
		return err
	}
	defer closeStore()

	in, out := app.stdin, app.stdout
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		logger.Warn("stdin is a terminal; letterbox mcp expects an MCP client to speak JSON-RPC on stdin")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("MCP server starting", slog.String("storage_driver", cfg.Storage.Driver))
	srv := mcpserver.New(repo, cfg.Countdown.Target(), nil)
	if err := srv.Serve(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
