// Package app assembles the engine services from configuration so every
// binary wires them the same way.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"carecal/internal/calendar"
	"carecal/internal/config"
	"carecal/internal/scheduler"
	"carecal/internal/storage"
	"carecal/internal/types"
)

// Engine holds the engine services built over one store.
type Engine struct {
	Store       storage.Store
	Location    *time.Location
	Clock       types.Clock
	Generator   *scheduler.Generator
	Replacer    *scheduler.HorizonReplacer
	Retirer     *scheduler.Retirer
	Exporter    *calendar.Exporter
	RollForward *scheduler.RollForward
}

// NewEngine wires the services over store. clock may be nil for wall time.
func NewEngine(cfg *config.Config, store storage.Store, clock types.Clock, logger *slog.Logger) (*Engine, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("resolving schedule timezone: %w", err)
	}
	if clock == nil {
		clock = types.RealClock{}
	}

	gen := scheduler.NewGenerator(store, store, loc, clock, logger)
	return &Engine{
		Store:     store,
		Location:  loc,
		Clock:     clock,
		Generator: gen,
		Replacer: scheduler.NewHorizonReplacer(store, loc, clock, scheduler.ReplacerConfig{
			DefaultWeeks: cfg.Schedule.DefaultWeeks,
			MaxWeeks:     cfg.Schedule.MaxWeeks,
			BatchSize:    cfg.Schedule.InsertBatchSize,
		}, logger),
		Retirer:  scheduler.NewRetirer(store, store, logger),
		Exporter: calendar.NewExporter(store),
		RollForward: scheduler.NewRollForward(store, gen, loc, scheduler.RollForwardConfig{
			Days:        cfg.RollForward.Days,
			Concurrency: cfg.RollForward.Concurrency,
		}, logger),
	}, nil
}

// OpenStore opens the store named by cfg.Database.
func OpenStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	return storage.Open(ctx, storage.Options{
		Driver:          cfg.Database.Driver,
		URL:             cfg.Database.URL.Unmask(),
		MaxConns:        int32(cfg.Database.MaxConns),
		MinConns:        int32(cfg.Database.MinConns),
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
	})
}

// NewLogger creates a JSON slog.Logger on stdout at the given level.
func NewLogger(level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
}

// ParseLevel maps a LOG_LEVEL value to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
