package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"carecal/internal/recurrence"
)

// Roll-forward defaults applied when RollForwardConfig leaves them unset.
const (
	DefaultRollForwardDays        = 14
	DefaultRollForwardConcurrency = 4
)

// ChildGenerator is the part of Generator the roll-forward job drives.
type ChildGenerator interface {
	Generate(ctx context.Context, childID string, dates []time.Time) ([]GenerationResult, error)
}

// RollForwardConfig bounds a roll-forward run.
type RollForwardConfig struct {
	Days        int
	Concurrency int
}

// RollForwardResult summarizes one run.
type RollForwardResult struct {
	Children int `json:"children"`
	Failed   int `json:"failed"`
	Created  int `json:"created"`
}

// RollForward keeps every child's near future filled by running the
// Generator over [today, today+Days) for each child with active templates.
// It is triggered externally; the engine itself never schedules work.
type RollForward struct {
	templates TemplateStore
	generator ChildGenerator
	loc       *time.Location
	cfg       RollForwardConfig
	logger    *slog.Logger
}

// NewRollForward creates a RollForward job.
func NewRollForward(templates TemplateStore, generator ChildGenerator, loc *time.Location, cfg RollForwardConfig, logger *slog.Logger) *RollForward {
	if loc == nil {
		loc = time.UTC
	}
	if cfg.Days <= 0 {
		cfg.Days = DefaultRollForwardDays
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultRollForwardConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RollForward{
		templates: templates,
		generator: generator,
		loc:       loc,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run generates schedules for every child with active templates. A failing
// child is logged and counted without stopping the others; only a failure to
// list children or a cancelled context fails the run.
func (r *RollForward) Run(ctx context.Context, now time.Time) (RollForwardResult, error) {
	var result RollForwardResult

	children, err := r.templates.ListChildrenWithActiveTemplates(ctx)
	if err != nil {
		return result, fmt.Errorf("listing children with active templates: %w", err)
	}
	result.Children = len(children)
	if len(children) == 0 {
		r.logger.InfoContext(ctx, "no children with active templates to roll forward")
		return result, nil
	}

	today := recurrence.StartOfDay(now, r.loc)
	dates := make([]time.Time, r.cfg.Days)
	for i := range dates {
		dates[i] = today.AddDate(0, 0, i)
	}

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)

	for _, childID := range children {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			results, err := r.generator.Generate(gCtx, childID, dates)

			mu.Lock()
			result.Created += CountCreated(results)
			if err != nil {
				result.Failed++
			}
			mu.Unlock()

			if err != nil {
				// Isolated per child; the next run retries.
				r.logger.ErrorContext(gCtx, "roll-forward failed for child",
					"child_id", childID,
					"error", err,
				)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	r.logger.InfoContext(ctx, "roll-forward complete",
		"children", result.Children,
		"failed", result.Failed,
		"created", result.Created,
		"from", today.Format(time.DateOnly),
		"days", r.cfg.Days,
	)
	return result, nil
}
