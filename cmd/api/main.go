// Package main is the entry point for the carecal API server.
//
// It loads the configuration, opens the configured store, wires the engine
// services into the HTTP chassis and serves until SIGINT or SIGTERM.
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

	"golang.org/x/sync/errgroup"

	"carecal/internal/api/handlers"
	"carecal/internal/app"
	"carecal/internal/config"
	"carecal/internal/core"
	"carecal/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := app.NewLogger(cfg.LogLevel)
	logger.Info("carecal API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
		"database_driver", cfg.Database.Driver,
		"database_url", cfg.Database.URL.Redacted(),
		"timezone", cfg.Schedule.Timezone,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	store, err := app.OpenStore(ctx, cfg)
	cancel()
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	engine, err := app.NewEngine(cfg, store, nil, logger)
	if err != nil {
		return err
	}

	srv, err := buildServer(cfg, engine, logger)
	if err != nil {
		return err
	}
	return runHTTPServer(srv, cfg, logger)
}

// buildServer mounts every handler on a new core.Server.
func buildServer(cfg *config.Config, engine *app.Engine, logger *slog.Logger) (*core.Server, error) {
	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating server: %w", err)
	}
	srv.HealthProbes = append(srv.HealthProbes, storage.HealthProbe{Store: engine.Store})

	scheduleHandler := handlers.NewScheduleHandler(engine.Generator, engine.Replacer, srv.Validator, engine.Location, logger)
	templateHandler := handlers.NewTemplateHandler(engine.Retirer, logger)
	calendarHandler := handlers.NewCalendarHandler(engine.Exporter, nil, engine.Location, logger)

	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars,
		scheduleHandler.RegisterRoutes,
		templateHandler.RegisterRoutes,
		calendarHandler.RegisterRoutes,
	)
	srv.MountRoutes()
	return srv, nil
}

// runHTTPServer serves until SIGINT or SIGTERM, then drains in-flight
// requests for up to shutdownTimeout.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving HTTP: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped cleanly")
	return nil
}
