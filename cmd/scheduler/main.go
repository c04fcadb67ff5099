// Package main is the roll-forward daemon. On every ROLLFORWARD_CRON tick it
// generates schedules for the next ROLLFORWARD_DAYS days for every child with
// an active template. Runs never overlap; a tick that fires while the previous
// run is still going is skipped.
//
// Usage:
//
//	scheduler          # run on the cron spec until SIGINT/SIGTERM
//	scheduler -once    # run a single roll-forward and exit
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"carecal/internal/app"
	"carecal/internal/config"
	"carecal/internal/scheduler"
	"carecal/internal/types"
)

// runTimeout bounds a single roll-forward run.
const runTimeout = 30 * time.Minute

func main() {
	once := flag.Bool("once", false, "run a single roll-forward and exit")
	flag.Parse()

	if err := run(*once); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(once bool) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := app.NewLogger(cfg.LogLevel)
	logger.Info("carecal scheduler starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"cron", cfg.RollForward.Cron,
		"days", cfg.RollForward.Days,
		"concurrency", cfg.RollForward.Concurrency,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	store, err := app.OpenStore(openCtx, cfg)
	cancel()
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	engine, err := app.NewEngine(cfg, store, nil, logger)
	if err != nil {
		return err
	}

	job := &rollForwardJob{
		runner:  engine.RollForward,
		clock:   types.RealClock{},
		timeout: runTimeout,
		logger:  logger,
	}

	if once {
		_, err := job.runOnce(ctx)
		return err
	}

	c := cron.New(
		cron.WithLocation(engine.Location),
		cron.WithLogger(cronLogger{logger: logger}),
		cron.WithChain(cron.Recover(cronLogger{logger: logger}), cron.SkipIfStillRunning(cronLogger{logger: logger})),
	)
	if _, err := c.AddFunc(cfg.RollForward.Cron, func() { _, _ = job.runOnce(ctx) }); err != nil {
		return fmt.Errorf("scheduling roll-forward: %w", err)
	}
	c.Start()

	<-ctx.Done()
	logger.Info("shutdown signal received, waiting for running job")
	<-c.Stop().Done()
	logger.Info("scheduler stopped cleanly")
	return nil
}

// rollForwardRunner is the part of scheduler.RollForward the daemon drives.
type rollForwardRunner interface {
	Run(ctx context.Context, now time.Time) (scheduler.RollForwardResult, error)
}

// rollForwardJob runs one bounded roll-forward and logs its outcome.
type rollForwardJob struct {
	runner  rollForwardRunner
	clock   types.Clock
	timeout time.Duration
	logger  *slog.Logger
}

func (j *rollForwardJob) runOnce(ctx context.Context) (scheduler.RollForwardResult, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	start := time.Now()
	result, err := j.runner.Run(ctx, j.clock.Now())
	if err != nil {
		j.logger.ErrorContext(ctx, "roll-forward failed",
			"children", result.Children,
			"failed", result.Failed,
			"created", result.Created,
			"error", err,
		)
		return result, err
	}

	j.logger.InfoContext(ctx, "roll-forward completed",
		"children", result.Children,
		"failed", result.Failed,
		"created", result.Created,
		"duration", time.Since(start),
	)
	return result, nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
