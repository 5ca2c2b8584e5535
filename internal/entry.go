// Package internal provides the main application initialization and runtime logic.
package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/rebuildup/my-web-2025-sub004/internal/api"
	"github.com/rebuildup/my-web-2025-sub004/internal/events"
	"github.com/rebuildup/my-web-2025-sub004/internal/index"
	"github.com/rebuildup/my-web-2025-sub004/internal/mcpserver"
)

// Run starts the HTTP server with the given options and blocks until ctx
// is cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = NewLogger(cfg.App, os.Stdout)
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("markdown_base", cfg.Markdown.BasePath),
		slog.String("legacy_data_dir", cfg.Legacy.DataDir),
		slog.String("sqlite_path", cfg.Index.SQLitePath),
		slog.String("log_level", cfg.App.LogLevel.String()))

	c, err := Build(cfg, logger)
	if err != nil {
		return fmt.Errorf("init components: %w", err)
	}
	db, err := c.OpenIndex()
	if err != nil {
		return err
	}
	defer db.Close()

	broker := events.NewBroker(2 * time.Second)
	defer broker.Close()

	apiRouter := api.NewRouter(api.Deps{
		Content:   c.Content(db, broker),
		Migration: c.Migrator,
		Dirs:      c.Dirs,
		Publisher: broker,
		Events:    broker,
		Logger:    logger,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if missing := c.Dirs.Validate(); len(missing) > 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"directories missing"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Index.Watch {
		g.Go(func() error {
			return index.Watch(gCtx, db, c.Store, c.Paths.Base(), logger, broker.PublishFileEvent)
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools over stdio. Logs go to stderr because stdout
// carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.logger
	if logger == nil {
		logger = NewLogger(app.config.App, os.Stderr)
	}
	slog.SetDefault(logger)

	c, err := Build(app.config, logger)
	if err != nil {
		return fmt.Errorf("init components: %w", err)
	}
	db, err := c.OpenIndex()
	if err != nil {
		return err
	}
	defer db.Close()

	srv := mcpserver.New(c.Content(db, nil), c.Migrator, app.version)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ServeStdio() }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}
