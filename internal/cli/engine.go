package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"carecal/internal/app"
	"carecal/internal/config"
	"carecal/internal/types"
)

// DefaultOpener loads the environment configuration, applies opts on top of
// it and opens the configured store.
func DefaultOpener(logger *slog.Logger) EngineOpener {
	return func(ctx context.Context, opts Options) (*app.Engine, func(), error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, fmt.Errorf("loading configuration: %w", err)
		}
		if err := applyOptions(cfg, opts); err != nil {
			return nil, nil, fmt.Errorf("loading configuration: %w", err)
		}

		clock, err := clockFor(opts.Today, cfg)
		if err != nil {
			return nil, nil, err
		}

		openCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		store, err := app.OpenStore(openCtx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("opening store: %w", err)
		}

		engine, err := app.NewEngine(cfg, store, clock, logger)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		return engine, store.Close, nil
	}
}

// applyOptions overrides cfg with the non-empty flag values and revalidates.
func applyOptions(cfg *config.Config, opts Options) error {
	if opts.Driver != "" {
		cfg.Database.Driver = opts.Driver
	}
	if opts.DatabaseURL != "" {
		cfg.Database.URL = config.SecretString(opts.DatabaseURL)
	}
	if opts.Timezone != "" {
		cfg.Schedule.Timezone = opts.Timezone
	}
	return config.Validate(cfg)
}

// clockFor returns a clock frozen at midday of today in the engine timezone,
// or nil for wall time when today is empty.
func clockFor(today string, cfg *config.Config) (types.Clock, error) {
	if today == "" {
		return nil, nil
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	d, err := parseDate("today", today, loc)
	if err != nil {
		return nil, err
	}
	return types.FixedClock(d.Add(12 * time.Hour)), nil
}
